package viewstate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/platform/metrics"
	"tikdl.local/internal/platform/trace"
)

const msgSomethingWrong = "Something went wrong"

const tracerName = "tikdl.local/internal/app/tiktok/viewstate"

// submissions is shared by all controllers so ids are unique per process.
var submissions atomic.Uint64

// Settlement describes how one submission ended.
type Settlement struct {
	Submission string
	Link       string
	Result     *tiktok.LookupResult
	Err        *tiktok.LookupError
	Latency    time.Duration
	Superseded bool // a newer submission or a reset replaced this one
}

type Option func(*Controller)

// WithTimeout bounds every lookup started by the controller.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithSettleHook registers fn to run after every settlement, outside the lock.
func WithSettleHook(fn func(Settlement)) Option {
	return func(c *Controller) { c.onSettle = fn }
}

// WithTracerProvider records submission spans on tp instead of the global
// provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(c *Controller) { c.tp = tp }
}

// Controller owns the State of one visitor and drives it through submissions
// and resets. Only the latest submission may settle the state: starting a new
// one or resetting cancels the lookup in flight and its outcome is dropped.
type Controller struct {
	looker   tiktok.Looker
	timeout  time.Duration
	onSettle func(Settlement)
	tp       oteltrace.TracerProvider

	mu      sync.Mutex
	state   State
	current string
	cancel  context.CancelFunc
}

func NewController(looker tiktok.Looker, opts ...Option) *Controller {
	c := &Controller{
		looker: looker,
		state:  Idle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a submission and returns the state right after it. done
// receives the state once the lookup settles; it is nil when nothing was
// started (blank url) and already filled when the link failed validation.
//
// The lookup keeps ctx values but not its cancellation, so a client that
// disconnects after posting the form still gets its result on reload.
func (c *Controller) Start(ctx context.Context, url string) (State, <-chan State) {
	if strings.TrimSpace(url) == "" {
		return c.State(), nil
	}

	id := tiktok.SubmissionID(submissions.Add(1))
	done := make(chan State, 1)

	c.mu.Lock()
	c.supersedeLocked()
	c.current = id
	c.state = c.state.Begin(url, id)

	if err := tiktok.ValidateLink(url); err != nil {
		le := tiktok.AsLookupError(err)
		c.state = c.state.Fail(le.Kind, le.Message)
		c.current = ""
		st := c.state
		c.mu.Unlock()

		metrics.LookupsTotal.WithLabelValues(string(le.Kind)).Inc()
		c.settled(Settlement{Submission: id, Link: url, Err: le})
		done <- st
		return st, done
	}

	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if c.timeout > 0 {
		lctx, cancel = withTimeout(lctx, cancel, c.timeout)
	}
	c.cancel = cancel
	st := c.state
	c.mu.Unlock()

	go c.run(lctx, cancel, id, url, done)
	return st, done
}

// Submit starts a submission and waits for it to settle or for ctx to end,
// whichever comes first, returning the state at that point.
func (c *Controller) Submit(ctx context.Context, url string) State {
	st, done := c.Start(ctx, url)
	if done == nil {
		return st
	}
	select {
	case st = <-done:
		return st
	case <-ctx.Done():
		return c.State()
	}
}

// Reset cancels any lookup in flight and returns to idle.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.current = ""
	c.state = c.state.Reset()
	return c.state
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, id, url string, done chan<- State) {
	defer cancel()

	tp := c.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	ctx, span := tp.Tracer(tracerName).Start(ctx, "viewstate.submission")
	span.SetAttributes(attribute.String(trace.LookupSubmission, id))
	defer span.End()

	start := time.Now()
	res, err := c.looker.Lookup(ctx, url)
	latency := time.Since(start)

	c.mu.Lock()
	if c.current != id {
		st := c.state
		c.mu.Unlock()
		metrics.LookupsSuperseded.Inc()
		span.SetAttributes(attribute.Bool("tikdl.lookup.superseded", true))
		c.settled(Settlement{Submission: id, Link: url, Latency: latency, Superseded: true})
		done <- st
		return
	}

	s := Settlement{Submission: id, Link: url, Latency: latency}
	if err != nil {
		le := tiktok.AsLookupError(err)
		msg := le.Message
		if msg == "" {
			msg = msgSomethingWrong
		}
		c.state = c.state.Fail(le.Kind, msg)
		s.Err = le
	} else {
		c.state = c.state.Succeed(res)
		s.Result = &res
	}
	c.current = ""
	c.cancel = nil
	st := c.state
	c.mu.Unlock()

	c.settled(s)
	done <- st
}

func (c *Controller) supersedeLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) settled(s Settlement) {
	outcome := "success"
	switch {
	case s.Superseded:
		outcome = "superseded"
	case s.Err != nil:
		outcome = string(s.Err.Kind)
	}
	slog.Info("submission settled",
		"submission", s.Submission,
		"outcome", outcome,
		"latency_ms", s.Latency.Milliseconds())

	if c.onSettle != nil {
		c.onSettle(s)
	}
}

func withTimeout(parent context.Context, parentCancel context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		cancel()
		parentCancel()
	}
}
