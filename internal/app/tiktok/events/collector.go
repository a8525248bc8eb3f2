package events

import (
	"sync"

	"tikdl.local/internal/platform/metrics"
)

// Collector receives lookup events. Collect must not block the caller.
type Collector interface {
	Collect(event LookupEvent)
	Close()
}

// ChannelCollector buffers events for an in-process Consumer. Events that
// arrive while the buffer is full or after Close are dropped.
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan LookupEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelCollector{ch: make(chan LookupEvent, bufferSize)}
}

func (c *ChannelCollector) Collect(event LookupEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		metrics.LookupEventsDropped.Inc()
		return
	}
	select {
	case c.ch <- event:
	default:
		metrics.LookupEventsDropped.Inc()
	}
}

func (c *ChannelCollector) Events() <-chan LookupEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
