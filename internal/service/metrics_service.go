package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, proposal caching,
// timetable generation and exports.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	inFlight           prometheus.Gauge
	cacheLookups       *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationScore    prometheus.Histogram
	generationConflict prometheus.Histogram
	generatedSessions  prometheus.Counter
	exportJobs         *prometheus.CounterVec

	generations uint64
	lastScore   int64
}

// MetricsSnapshot is a point-in-time summary used by the health endpoint.
type MetricsSnapshot struct {
	Generations    uint64    `json:"generations"`
	LastBestScore  int64     `json:"lastBestScore"`
	Goroutines     int       `json:"goroutines"`
	GeneratedAtUTC time.Time `json:"generatedAt"`
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proposal_cache_lookups_total",
		Help: "Proposal lookups by backend and outcome",
	}, []string{"backend", "result"})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of a generation request across all options",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	generationScore := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_best_score",
		Help:    "Best option score per generation request",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	generationConflict := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_conflicts",
		Help:    "Conflicts in the best option per generation request",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	generatedSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generated_sessions_total",
		Help: "Sessions placed across all best options",
	})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_export_jobs_total",
		Help: "Export jobs by format and terminal status",
	}, []string{"format", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, inFlight, cacheLookups, generationDuration, generationScore,
		generationConflict, generatedSessions, exportJobs, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		inFlight:           inFlight,
		cacheLookups:       cacheLookups,
		generationDuration: generationDuration,
		generationScore:    generationScore,
		generationConflict: generationConflict,
		generatedSessions:  generatedSessions,
		exportJobs:         exportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// TrackInFlight bumps the in-flight gauge; call the returned func when the request ends.
func (m *MetricsService) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// RecordProposalLookup counts proposal store hits and misses per backend.
func (m *MetricsService) RecordProposalLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(backend, result).Inc()
}

// ObserveGeneration records one generation request summarised by its best option.
func (m *MetricsService) ObserveGeneration(mode string, bestScore, conflicts, sessions int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.generationScore.Observe(float64(bestScore))
	m.generationConflict.Observe(float64(conflicts))
	m.generatedSessions.Add(float64(sessions))
	atomic.AddUint64(&m.generations, 1)
	atomic.StoreInt64(&m.lastScore, int64(bestScore))
}

// RecordExport counts an export job reaching a terminal status.
func (m *MetricsService) RecordExport(format, status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(format, status).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Generations:    atomic.LoadUint64(&m.generations),
		LastBestScore:  atomic.LoadInt64(&m.lastScore),
		Goroutines:     runtime.NumGoroutine(),
		GeneratedAtUTC: time.Now().UTC(),
	}
}
