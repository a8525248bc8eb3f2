package httpmiddleware

import (
	"strconv"
	"time"

	"tikdl.local/gee"
	"tikdl.local/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight requests per route
// pattern. Unmatched paths share one label.
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()
		defer func() {
			routePattern := ctx.RoutePattern
			if routePattern == "" {
				routePattern = "UNMATCHED"
			}
			status := ctx.Writer.Status()
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, routePattern, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, routePattern).Observe(time.Since(start).Seconds())
		}()
		ctx.Next()
	}
}
