package events

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Summary aggregates one flushed batch.
type Summary struct {
	Count      int
	Outcomes   map[string]int
	Images     int
	AvgLatency time.Duration
	MaxLatency time.Duration
}

func Summarize(batch []LookupEvent) Summary {
	s := Summary{Count: len(batch), Outcomes: make(map[string]int)}
	if len(batch) == 0 {
		return s
	}
	var total time.Duration
	for _, e := range batch {
		s.Outcomes[e.Outcome]++
		s.Images += e.Images
		total += e.Latency
		if e.Latency > s.MaxLatency {
			s.MaxLatency = e.Latency
		}
	}
	s.AvgLatency = total / time.Duration(len(batch))
	return s
}

// LogValue renders the outcome counts in a stable order.
func (s Summary) LogValue() slog.Value {
	keys := make([]string, 0, len(s.Outcomes))
	for k := range s.Outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys)+4)
	attrs = append(attrs,
		slog.Int("count", s.Count),
		slog.Int("images", s.Images),
		slog.Int64("avg_latency_ms", s.AvgLatency.Milliseconds()),
		slog.Int64("max_latency_ms", s.MaxLatency.Milliseconds()),
	)
	for _, k := range keys {
		attrs = append(attrs, slog.Int("outcome_"+k, s.Outcomes[k]))
	}
	return slog.GroupValue(attrs...)
}

// FlushFunc handles one batch. The slice is reused after it returns.
type FlushFunc func(batch []LookupEvent)

// LogFlush writes one summary line per batch.
func LogFlush(source string) FlushFunc {
	return func(batch []LookupEvent) {
		slog.Info("lookup events", "source", source, "summary", Summarize(batch))
	}
}

// Consumer drains a ChannelCollector in batches.
type Consumer struct {
	collector *ChannelCollector
	flush     FlushFunc
	batchSize int
	interval  time.Duration
}

func NewConsumer(collector *ChannelCollector, flush FlushFunc) *Consumer {
	if flush == nil {
		flush = LogFlush("channel")
	}
	return &Consumer{
		collector: collector,
		flush:     flush,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run blocks until ctx ends or the collector is closed, flushing what is left.
func (c *Consumer) Run(ctx context.Context) {
	runBatches(ctx, c.collector.Events(), c.batchSize, c.interval, c.flush)
}

func runBatches(ctx context.Context, in <-chan LookupEvent, size int, interval time.Duration, flush FlushFunc) {
	batch := make([]LookupEvent, 0, size)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	emit := func() {
		if len(batch) > 0 {
			flush(batch)
			batch = batch[:0]
		}
	}

	for {
		select {
		case <-ctx.Done():
			emit()
			return
		case event, ok := <-in:
			if !ok {
				emit()
				return
			}
			batch = append(batch, event)
			if len(batch) >= size {
				emit()
			}
		case <-ticker.C:
			emit()
		}
	}
}
