package tiktok

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"tikdl.local/internal/platform/metrics"
	"tikdl.local/internal/platform/trace"
)

const (
	DefaultProxyBase     = "https://api.allorigins.win"
	DefaultExtractorBase = "https://www.tikwm.com"

	defaultMaxBytes = 4 << 20
)

const tracerName = "tikdl.local/internal/app/tiktok"

// Looker resolves one share link into a LookupResult.
type Looker interface {
	Lookup(ctx context.Context, link string) (LookupResult, error)
}

// Fetcher resolves links through the extractor API reached via a generic
// pass-through proxy. Every call is one fresh proxy GET: no retries and no
// memory of earlier lookups.
type Fetcher struct {
	client        *http.Client
	proxyBase     string
	extractorBase string
	maxBytes      int64
	tp            oteltrace.TracerProvider
}

var _ Looker = (*Fetcher)(nil)

// NewFetcher builds a Fetcher. Empty bases fall back to the public services,
// maxBytes <= 0 uses 4 MiB. The client transport is wrapped with otelhttp.
func NewFetcher(client *http.Client, proxyBase, extractorBase string, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	instrumented := *client
	base := instrumented.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	instrumented.Transport = otelhttp.NewTransport(base)

	if proxyBase == "" {
		proxyBase = DefaultProxyBase
	}
	if extractorBase == "" {
		extractorBase = DefaultExtractorBase
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		client:        &instrumented,
		proxyBase:     strings.TrimRight(proxyBase, "/"),
		extractorBase: strings.TrimRight(extractorBase, "/"),
		maxBytes:      maxBytes,
	}
}

// WithTracerProvider records lookup spans on tp instead of the global
// provider.
func (f *Fetcher) WithTracerProvider(tp oteltrace.TracerProvider) *Fetcher {
	f.tp = tp
	return f
}

func (f *Fetcher) tracer() oteltrace.Tracer {
	tp := f.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// ExtractorURL is the extractor request for link, asking for HD variants.
func (f *Fetcher) ExtractorURL(link string) string {
	return f.extractorBase + "/api/?url=" + url.QueryEscape(link) + "&hd=1"
}

// ProxyURL wraps target as the subject of a proxy GET.
func (f *Fetcher) ProxyURL(target string) string {
	return f.proxyBase + "/get?url=" + url.QueryEscape(target)
}

// Lookup validates link, fetches it through the proxy and normalizes the
// answer. Every failure is a *LookupError.
func (f *Fetcher) Lookup(ctx context.Context, link string) (LookupResult, error) {
	link = strings.TrimSpace(link)
	if err := ValidateLink(link); err != nil {
		metrics.LookupsTotal.WithLabelValues(string(KindInvalidInput)).Inc()
		return LookupResult{}, err
	}

	ctx, span := f.tracer().Start(ctx, "tiktok.lookup")
	defer span.End()
	if u, err := url.Parse(withScheme(link)); err == nil {
		span.SetAttributes(attribute.String(trace.LookupLinkHost, u.Hostname()))
	}

	start := time.Now()
	res, upstreamCode, err := f.fetch(ctx, link)
	metrics.LookupDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		le := AsLookupError(err)
		metrics.LookupsTotal.WithLabelValues(string(le.Kind)).Inc()
		span.SetAttributes(
			attribute.String(trace.LookupErrorKind, string(le.Kind)),
			attribute.Int(trace.LookupUpstream, upstreamCode),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, le.Message)
		slog.WarnContext(ctx, "lookup failed",
			"kind", le.Kind,
			"err", err,
			"upstream_code", upstreamCode,
			"latency_ms", time.Since(start).Milliseconds())
		return LookupResult{}, le
	}

	metrics.LookupsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.String(trace.LookupKind, string(res.Kind)))
	slog.DebugContext(ctx, "lookup settled",
		"media_kind", res.Kind,
		"images", len(res.Images),
		"latency_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (f *Fetcher) fetch(ctx context.Context, link string) (LookupResult, int, error) {
	proxyURL := f.ProxyURL(f.ExtractorURL(link))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, nil)
	if err != nil {
		return LookupResult{}, 0, &LookupError{Kind: KindUnknown, Message: msgLookupFailed, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return LookupResult{}, 0, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return LookupResult{}, 0, &LookupError{
			Kind:    KindUpstreamUnavailable,
			Message: fmt.Sprintf(msgProxyStatus, resp.StatusCode),
			Err:     fmt.Errorf("proxy status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return LookupResult{}, 0, transportError(err)
	}
	if int64(len(body)) > f.maxBytes {
		return LookupResult{}, 0, malformed("proxy", fmt.Errorf("body exceeds %d bytes", f.maxBytes))
	}

	inner, err := unwrapEnvelope(body)
	if err != nil {
		return LookupResult{}, 0, err
	}
	data, code, err := interpretPayload(inner)
	if err != nil {
		return LookupResult{}, code, err
	}
	return normalize(data), code, nil
}

func transportError(err error) *LookupError {
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		return &LookupError{Kind: KindUpstreamUnavailable, Message: msgLookupTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &LookupError{Kind: KindUpstreamUnavailable, Message: "The lookup was canceled.", Err: err}
	}
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) {
		// drop the request URL, it only repeats the link
		msg = uerr.Err.Error()
	}
	return &LookupError{
		Kind:    KindUpstreamUnavailable,
		Message: "Proxy service unreachable: " + msg,
		Err:     err,
	}
}

func withScheme(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return "https://" + link
}
