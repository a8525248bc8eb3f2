package httpapi

import (
	"net/http"
	"time"

	"tikdl.local/gee"
	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/events"
	"tikdl.local/internal/app/tiktok/session"
	"tikdl.local/internal/platform/httpmiddleware"
)

// RegisterWebRoutes mounts the page and its form endpoints. Each browser is
// tied to its own controller through the session cookie.
func RegisterWebRoutes(r *gee.Engine, sessions *session.Store, limiter httpmiddleware.Allower, secureCookie bool) {
	loadTemplates(r)

	visitor := Visitor(sessions, secureCookie)
	r.GET("/", visitor, NewPageHandler())
	// 20/min per client
	r.POST("/lookup", visitor, httpmiddleware.RateLimitWith(limiter, "lookup", 20, time.Minute, NewLimitedHandler()), NewSubmitHandler(settleWait))
	r.POST("/reset", visitor, NewResetHandler())

	r.GET("/favicon.ico", func(ctx *gee.Context) {
		ctx.Status(http.StatusNoContent)
	})
}

// RegisterAPIRoutes mounts the stateless JSON API under api (e.g. /api/v1).
func RegisterAPIRoutes(api *gee.RouterGroup, looker tiktok.Looker, collector events.Collector, limiter httpmiddleware.Allower, timeout time.Duration) {
	// 30/min per client
	api.POST("/lookup", httpmiddleware.RateLimit(limiter, "api-lookup", 30, time.Minute), NewLookupHandler(looker, collector, timeout))
}
