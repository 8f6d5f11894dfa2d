package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/timetables", http.StatusOK, 20*time.Millisecond)
	m.ObserveGeneration("weekly", 88, 1, 42, 150*time.Millisecond)
	m.RecordProposalLookup("memory", true)
	m.RecordExport("csv", "FINISHED")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "timetable_generation_best_score")
	assert.Contains(t, body, `proposal_cache_lookups_total{backend="memory",result="hit"} 1`)
	assert.Contains(t, body, `timetable_export_jobs_total{format="csv",status="FINISHED"} 1`)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Generations)
	assert.Equal(t, int64(88), snap.LastBestScore)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveGeneration("weekly", 1, 0, 0, time.Second)
	m.RecordExport("pdf", "FAILED")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
