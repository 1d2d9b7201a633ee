package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies by route template, so
// /api/v1/regulations/:substance is one series regardless of the substance.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
