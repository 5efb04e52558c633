package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestObserver is satisfied by service.MetricsService.
type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// probePaths are scraped by orchestrators and kept out of request metrics.
var probePaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics records latency and status per scheduler route. Requests are labelled by
// the route template, so /lessons/individual/:id is one series however many lessons exist.
func Metrics(observer requestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if observer == nil {
			return
		}
		route := c.FullPath()
		if _, probe := probePaths[route]; probe {
			return
		}
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
