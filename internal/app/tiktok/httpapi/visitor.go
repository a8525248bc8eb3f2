package httpapi

import (
	"log/slog"
	"net/http"

	"tikdl.local/gee"
	"tikdl.local/internal/app/tiktok/session"
	"tikdl.local/internal/app/tiktok/viewstate"
)

const visitorKey = "tikdl.visitor"

// Visitor resolves the session cookie to the visitor's controller, issuing
// a new cookie for unknown or expired sessions.
func Visitor(store *session.Store, secure bool) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		incoming := ctx.Cookie(session.CookieName)
		c, sid, err := store.Resolve(incoming)
		if err != nil {
			slog.ErrorContext(ctx.Context(), "resolve session failed", "err", err)
			ctx.AbortWithError(http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		if sid != incoming {
			ctx.SetCookie(&http.Cookie{
				Name:     session.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx.Set(visitorKey, c)
		ctx.Next()
	}
}

func visitorFrom(ctx *gee.Context) (*viewstate.Controller, bool) {
	v, ok := ctx.Get(visitorKey)
	if !ok {
		ctx.AbortWithError(http.StatusInternalServerError, "no visitor session")
		return nil, false
	}
	return v.(*viewstate.Controller), true
}
