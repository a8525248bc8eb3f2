package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tikdl.local/gee"
	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/events"
	"tikdl.local/internal/app/tiktok/viewstate"
)

type LookupRequest struct {
	URL string `json:"url"`
}

// NewLookupHandler answers POST {"url": ...} with the normalized result.
// Each request runs on a throwaway controller, so the JSON API shares the
// page's settlement rules and events without keeping any state.
func NewLookupHandler(looker tiktok.Looker, collector events.Collector, timeout time.Duration) gee.HandlerFunc {
	opts := []viewstate.Option{viewstate.WithTimeout(timeout)}
	if hook := events.SettleHook(collector); hook != nil {
		opts = append(opts, viewstate.WithSettleHook(hook))
	}
	return func(ctx *gee.Context) {
		var req LookupRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			ctx.AbortWithErrorKind(http.StatusBadRequest, string(tiktok.KindInvalidInput), "url is required")
			return
		}

		st := viewstate.NewController(looker, opts...).Submit(ctx.Context(), req.URL)
		if st.Submission != "" {
			ctx.SetHeader("X-Lookup-ID", st.Submission)
		}

		switch st.Status {
		case viewstate.StatusSuccess:
			ctx.JSON(http.StatusOK, st.Result)
		case viewstate.StatusError:
			ctx.AbortWithErrorKind(StatusFor(st.ErrKind), string(st.ErrKind), st.Err)
		default:
			// the client went away before the lookup settled
			ctx.AbortWithErrorKind(http.StatusGatewayTimeout, string(tiktok.KindUpstreamUnavailable), "lookup did not finish")
		}
	}
}

// StatusFor maps an error kind to the JSON API status code.
func StatusFor(kind tiktok.ErrorKind) int {
	switch kind {
	case tiktok.KindInvalidInput:
		return http.StatusBadRequest
	case tiktok.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case tiktok.KindUpstreamUnavailable, tiktok.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
