package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-board-api/internal/metrics"
)

func setupMetricsRouter(t *testing.T) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	router := gin.New()
	router.Use(Metrics(metrics.NewWithRegistry(registry, zap.NewNop())))
	return router, registry
}

// requestCounts maps "method endpoint status" to the recorded request count
func requestCounts(t *testing.T, registry *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "kanban_board_http_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			out[labelsOf(m)["method"]+" "+labelsOf(m)["endpoint"]+" "+labelsOf(m)["status"]] = m.GetCounter().GetValue()
		}
	}
	return out
}

func labelsOf(m *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	return labels
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	router, registry := setupMetricsRouter(t)
	router.GET("/api/cards/:cardId", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.PATCH("/api/cards/:cardId/move", func(c *gin.Context) { c.Status(http.StatusConflict) })

	for _, path := range []string{"/api/cards/1", "/api/cards/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/cards/3/move", nil))

	counts := requestCounts(t, registry)
	assert.Equal(t, 2.0, counts["GET /api/cards/:cardId 2xx"])
	assert.Equal(t, 1.0, counts["PATCH /api/cards/:cardId/move 4xx"])
}

func TestMetricsMiddleware_ExcludedEndpoints(t *testing.T) {
	router, registry := setupMetricsRouter(t)
	for _, path := range []string{"/metrics", "/health", "/ready", "/api/health"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range []string{"/metrics", "/health", "/ready", "/api/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Empty(t, requestCounts(t, registry))
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	router, registry := setupMetricsRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, requestCounts(t, registry)["GET unmatched 4xx"])
}
