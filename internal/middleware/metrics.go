package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-discovery-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route. Raw URLs would carry session ids.
const unmatchedRoute = "unmatched"

// Metrics records request duration and count labelled by route template. Requests to the paths in
// skip, such as probes and the scrape endpoint, are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
