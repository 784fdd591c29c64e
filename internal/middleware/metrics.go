package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"kanban-board-api/internal/metrics"
)

// Metrics returns a middleware that records HTTP metrics
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics, health and websocket endpoints
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) || metrics.ShouldSkipEndpoint(c.FullPath()) {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		endpoint := c.FullPath() // route pattern keeps label cardinality bounded
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
