package gee

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

type H map[string]any

// abortIndex must exceed any real handler index while leaving room for
// nested Next loops to keep incrementing without overflow.
const abortIndex = math.MaxInt32

type Context struct {
	Writer *ResponseWriter
	Req    *http.Request
	//请求消息
	Path         string
	Method       string
	Params       map[string]string
	RoutePattern string
	//中间件
	handlers []HandlerFunc
	index    int
	keys     map[string]any // Set/Get
	//engine
	engine *Engine
}

func newContext(w http.ResponseWriter, req *http.Request) *Context {
	return &Context{
		Writer: NewResponseWriter(w),
		Req:    req,
		Path:   req.URL.Path,
		Method: req.Method,
		index:  -1,
	}
}

// Context is the request context, for passing to blocking calls.
func (c *Context) Context() context.Context {
	return c.Req.Context()
}

func (c *Context) Next() {
	c.index++
	s := len(c.handlers)
	for ; c.index < s && !c.IsAborted(); c.index++ {
		c.handlers[c.index](c)
	}
}

func (c *Context) Param(key string) string {
	return c.Params[key]
}

// PostForm returns the first value for key in the form body, falling back
// to the query string.
func (c *Context) PostForm(key string) string {
	return c.Req.FormValue(key)
}

func (c *Context) Query(key string) string {
	return c.Req.URL.Query().Get(key)
}

// Set stores a value for later handlers in the same request.
func (c *Context) Set(key string, value any) {
	if c.keys == nil {
		c.keys = make(map[string]any)
	}
	c.keys[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	v, ok := c.keys[key]
	return v, ok
}

func (c *Context) Cookie(name string) string {
	ck, err := c.Req.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c *Context) SetCookie(ck *http.Cookie) {
	http.SetCookie(c.Writer, ck)
}

func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

func (c *Context) SetHeader(key string, value string) {
	c.Writer.SetHeader(key, value)
}

func (c *Context) String(code int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	c.Writer.Write([]byte(fmt.Sprintf(format, values...)))
}

func (c *Context) JSON(code int, obj any) {
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	encoder := json.NewEncoder(c.Writer)
	if err := encoder.Encode(obj); err != nil {
		http.Error(c.Writer, err.Error(), 500)
	}
}

func (c *Context) Data(code int, data []byte) {
	c.Status(code)
	c.Writer.Write(data)
}

// HTML renders the named template. Rendering goes to a buffer first so a
// template error still produces a clean 500.
func (c *Context) HTML(code int, name string, data any) {
	if c.engine == nil || c.engine.htmlTemplates == nil {
		c.Fail(http.StatusInternalServerError, "html templates not loaded")
		return
	}
	buf := getBuffer()
	defer putBuffer(buf)
	if err := c.engine.htmlTemplates.ExecuteTemplate(buf, name, data); err != nil {
		c.Fail(http.StatusInternalServerError, err.Error())
		return
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	c.Writer.Write(buf.Bytes())
}

// Redirect answers with a Location header. code should be a 3xx status.
func (c *Context) Redirect(code int, location string) {
	http.Redirect(c.Writer, c.Req, location, code)
}

func (c *Context) Fail(code int, format string) {
	c.String(code, "%s", format)
	c.Abort()
}

func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

func (c *Context) AbortWithStatus(code int) {
	c.Status(code)
	c.Abort()
}

func (c *Context) AbortWithStatusJSON(code int, obj any) {
	c.Abort()

	if c.Writer.Written() {
		return
	}

	bytes, err := json.Marshal(obj)
	if err != nil {
		code = http.StatusInternalServerError
		bytes = []byte(`{"code":500,"message":"Internal Server Error"}`)
	}
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	c.Writer.Write(bytes)
}

func (c *Context) AbortWithError(code int, message string) {
	c.AbortWithStatusJSON(code, NewErrorResponse(c, code, message))
}

// AbortWithErrorKind is AbortWithError with a machine-readable error kind.
func (c *Context) AbortWithErrorKind(code int, kind, message string) {
	resp := NewErrorResponse(c, code, message)
	resp.Kind = kind
	c.AbortWithStatusJSON(code, resp)
}
