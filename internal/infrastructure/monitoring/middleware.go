package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request count, latency and body sizes per route
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.RecordHTTPRequest(
			c.Request.Method,
			routeLabel(c),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
			nonNegative(c.Request.ContentLength),
			nonNegative(int64(c.Writer.Size())),
		)
	}
}

// routeLabel keeps terminal ids out of label values by using the route
// template rather than the request path
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// nonNegative maps unknown sizes (-1) to zero
func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
