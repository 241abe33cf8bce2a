package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"todostore/internal/core/telemetry"
)

func Metrics(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			routeOf(c),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// routeOf keeps label cardinality bounded by using the route template.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	return "unmatched"
}
