package middleware

import (
	"log/slog"
	"time"

	"tikdl.local/gee"
)

// AccessLog writes one line per request after the chain returns. Server
// errors are logged at warn.
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		level := slog.LevelInfo
		if ctx.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(ctx.Context(), level, "access",
			"request_id", ctx.Req.Header.Get(requestIDHeader),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", ctx.RoutePattern,
			"status", ctx.Writer.Status(),
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
