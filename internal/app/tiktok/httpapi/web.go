package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"tikdl.local/gee"
	"tikdl.local/internal/app/tiktok/viewstate"
)

//go:embed templates/*.html
var templateFS embed.FS

// settleWait is how long POST /lookup holds the redirect hoping the lookup
// settles, so fast lookups skip the loading page.
const settleWait = 2 * time.Second

// refreshSeconds is the reload interval of the loading page.
const refreshSeconds = 1

// loadTemplates installs the page helpers and parses the embedded templates.
func loadTemplates(r *gee.Engine) {
	r.SetFuncMap(template.FuncMap{
		// 1-based slide numbers
		"seq": func(i int) int { return i + 1 },
	})
	r.LoadHTMLFS(templateFS, "templates/*.html")
}

const msgTooManyLookups = "Too many lookups from your network. Please wait a minute and try again."

type pageView struct {
	State   viewstate.State
	Refresh int
	Notice  string
}

func NewPageHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		c, ok := visitorFrom(ctx)
		if !ok {
			return
		}
		st := c.State()
		view := pageView{State: st}
		if st.Busy() {
			view.Refresh = refreshSeconds
		}
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.HTML(http.StatusOK, "index", view)
	}
}

// NewSubmitHandler starts a lookup for the form field url and redirects to
// the page, waiting at most wait for the lookup to settle first. A blank
// url changes nothing.
func NewSubmitHandler(wait time.Duration) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		c, ok := visitorFrom(ctx)
		if !ok {
			return
		}
		_, done := c.Start(ctx.Context(), ctx.PostForm("url"))
		if done != nil && wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-done:
			case <-timer.C:
			case <-ctx.Context().Done():
			}
			timer.Stop()
		}
		ctx.Redirect(http.StatusSeeOther, "/")
	}
}

// NewLimitedHandler answers a rate-limited form post with the visitor's
// current page and a notice, leaving the state untouched.
func NewLimitedHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		c, ok := visitorFrom(ctx)
		if !ok {
			return
		}
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.HTML(http.StatusTooManyRequests, "index", pageView{State: c.State(), Notice: msgTooManyLookups})
	}
}

func NewResetHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		c, ok := visitorFrom(ctx)
		if !ok {
			return
		}
		c.Reset()
		ctx.Redirect(http.StatusSeeOther, "/")
	}
}
