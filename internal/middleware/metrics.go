package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arka-edu/timetable-api/internal/service"
)

// Metrics records request counts and latency per route. The route label is
// the gin template path, not the raw URL, so path parameters do not explode
// the cardinality.
func Metrics(m *service.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
