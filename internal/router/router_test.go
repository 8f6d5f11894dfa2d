package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-engine/internal/handler"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

type roleValidator struct{}

func (roleValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin":
		return &models.JWTClaims{UserID: "a", Role: models.RoleAdmin}, nil
	case "student":
		return &models.JWTClaims{UserID: "s", Role: models.RoleStudent}, nil
	}
	return nil, appErrors.Wrap(errors.New("bad"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

func newTestEngine(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	metrics := service.NewMetricsService()
	Register(r, roleValidator{}, metrics, Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Timetable: handler.NewTimetableHandler(nil),
		Export:    handler.NewExportHandler(nil),
		Metrics:   handler.NewMetricsHandler(metrics, nil),
	}, opts)
	return r
}

func routeSet(r *gin.Engine) map[string]bool {
	routes := map[string]bool{}
	for _, info := range r.Routes() {
		routes[info.Method+" "+info.Path] = true
	}
	return routes
}

func TestRegisterRoutes(t *testing.T) {
	r := newTestEngine(Options{APIPrefix: "/api/v1/", ExposeMetrics: true, SchedulerEnabled: true, ExportsEnabled: true})
	routes := routeSet(r)

	for _, route := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/auth/login",
		"POST /api/v1/timetables/generate",
		"POST /api/v1/timetables/analyze",
		"POST /api/v1/timetables",
		"GET /api/v1/timetables",
		"GET /api/v1/timetables/:id",
		"GET /api/v1/timetables/:id/sessions",
		"GET /api/v1/timetables/:id/analytics",
		"POST /api/v1/timetables/:id/publish",
		"DELETE /api/v1/timetables/:id",
		"POST /api/v1/timetables/:id/exports",
		"GET /api/v1/exports/:id",
		"GET /api/v1/export/:token",
	} {
		assert.True(t, routes[route], route)
	}
	assert.False(t, routes["GET /docs/*any"])
}

func TestRegisterRespectsToggles(t *testing.T) {
	routes := routeSet(newTestEngine(Options{}))

	assert.False(t, routes["POST /api/v1/timetables/generate"])
	assert.False(t, routes["POST /api/v1/timetables/:id/exports"])
	assert.False(t, routes["GET /metrics"])
	assert.True(t, routes["GET /api/v1/timetables"])
}

func TestRegisterEnforcesRoles(t *testing.T) {
	r := newTestEngine(Options{SchedulerEnabled: true})

	cases := []struct {
		token  string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"student", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/timetables/generate", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
