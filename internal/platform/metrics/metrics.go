package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus panics on duplicate registration, so Init is guarded.
	once sync.Once

	// HTTPRequestsTotal counts finished requests.
	//
	// route must be the route pattern (e.g. /api/v1/lookup), never the raw
	// path, or label cardinality is unbounded.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// LookupsTotal counts settled lookups by outcome (success or error kind).
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktok_lookups_total",
			Help: "Settled TikTok lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// LookupDurationSeconds covers the whole proxy round trip, validation excluded.
	LookupDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tiktok_lookup_duration_seconds",
			Help:    "Latency of proxied extractor lookups.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
	)

	// LookupsSuperseded counts lookups whose result was discarded because a
	// newer submission started for the same visitor.
	LookupsSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tiktok_lookups_superseded_total",
			Help: "Lookups discarded because a newer submission replaced them.",
		},
	)

	LookupEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_events_dropped_total",
			Help: "Lookup events dropped because the collector buffer was full.",
		},
	)
)

// Init registers all collectors once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LookupsTotal,
			LookupDurationSeconds,
			LookupsSuperseded,
			LookupEventsDropped,
		)
	})
}
