package gee

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestHTMLFromFS(t *testing.T) {
	engine := New()
	engine.SetFuncMap(template.FuncMap{"upper": strings.ToUpper})
	engine.LoadHTMLFS(fstest.MapFS{
		"tpl/page.html": {Data: []byte(`{{define "page"}}<p>{{upper .}}</p>{{end}}`)},
	}, "tpl/*.html")
	engine.GET("/", func(ctx *Context) {
		ctx.HTML(http.StatusOK, "page", "<hi>")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "<p>&lt;HI&gt;</p>" {
		t.Errorf("unexpected body %q", got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected Content-Type %q", ct)
	}
}

func TestHTMLTemplateErrorIs500(t *testing.T) {
	engine := New()
	engine.LoadHTMLFS(fstest.MapFS{
		"page.html": {Data: []byte(`{{define "page"}}{{.Missing.Field}}{{end}}`)},
	}, "*.html")
	engine.GET("/", func(ctx *Context) {
		ctx.HTML(http.StatusOK, "page", struct{}{})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestHTMLWithoutTemplates(t *testing.T) {
	engine := New()
	engine.GET("/", func(ctx *Context) {
		ctx.HTML(http.StatusOK, "page", nil)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestRedirect(t *testing.T) {
	engine := New()
	engine.POST("/form", func(ctx *Context) {
		ctx.Redirect(http.StatusSeeOther, "/")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("POST", "/form", nil))
	if w.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected Location /, got %q", loc)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	engine := New()
	engine.GET("/", func(ctx *Context) {
		if ctx.Cookie("sid") == "" {
			ctx.SetCookie(&http.Cookie{Name: "sid", Value: "v1", Path: "/"})
		}
		ctx.String(http.StatusOK, "%s", ctx.Cookie("sid"))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "v1" {
		t.Fatalf("expected sid cookie, got %v", cookies)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Body.String() != "v1" {
		t.Errorf("expected cookie value echoed, got %q", w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie should not be reissued")
	}
}

func TestSetGet(t *testing.T) {
	engine := New()
	engine.Use(func(ctx *Context) {
		ctx.Set("who", "mw")
		ctx.Next()
	})
	engine.GET("/", func(ctx *Context) {
		v, ok := ctx.Get("who")
		if !ok {
			ctx.String(http.StatusInternalServerError, "missing")
			return
		}
		ctx.String(http.StatusOK, "%v", v)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Body.String() != "mw" {
		t.Errorf("expected mw, got %q", w.Body.String())
	}

	c := &Context{}
	if _, ok := c.Get("nothing"); ok {
		t.Error("empty context should have no keys")
	}
}

func TestAbortWithErrorKind(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Request-ID", "rid")
	c := newContext(w, req)

	c.AbortWithErrorKind(http.StatusBadGateway, "UpstreamUnavailable", "down")

	if !c.IsAborted() {
		t.Error("context should be aborted")
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ErrorResponse{Code: http.StatusBadGateway, Message: "down", RequestId: "rid", Kind: "UpstreamUnavailable"}
	if body != want {
		t.Errorf("expected %+v, got %+v", want, body)
	}

	w = httptest.NewRecorder()
	c = newContext(w, req)
	c.AbortWithError(http.StatusBadRequest, "bad")
	if strings.Contains(w.Body.String(), "Kind") {
		t.Errorf("Kind should be omitted when empty: %s", w.Body.String())
	}
}
