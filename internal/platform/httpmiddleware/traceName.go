package httpmiddleware

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tikdl.local/gee"
)

// TraceName renames the otelhttp server span after the matched route so
// spans group by route instead of raw path.
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		span := trace.SpanFromContext(ctx.Context())
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		span.SetName(ctx.Method + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		ctx.Next()
	}
}
