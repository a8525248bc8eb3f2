package events

import (
	"net/url"
	"strings"
	"time"

	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/viewstate"
)

const OutcomeSuccess = "success"

// OutcomeSuperseded marks a lookup that was replaced before it settled.
const OutcomeSuperseded = "superseded"

// LookupEvent is one settled submission. The link itself is not kept, only
// its host.
type LookupEvent struct {
	Submission string        `json:"submission"`
	LinkHost   string        `json:"link_host,omitempty"`
	Outcome    string        `json:"outcome"` // success, superseded or an error kind
	MediaKind  string        `json:"media_kind,omitempty"`
	Images     int           `json:"images,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
	SettledAt  time.Time     `json:"settled_at"`
}

// FromSettlement converts a controller settlement into an event.
func FromSettlement(s viewstate.Settlement) LookupEvent {
	e := LookupEvent{
		Submission: s.Submission,
		LinkHost:   linkHost(s.Link),
		Latency:    s.Latency,
		SettledAt:  time.Now().UTC(),
	}
	switch {
	case s.Superseded:
		e.Outcome = OutcomeSuperseded
	case s.Err != nil:
		e.Outcome = string(s.Err.Kind)
	case s.Result != nil:
		e.Outcome = OutcomeSuccess
		e.MediaKind = string(s.Result.Kind)
		e.Images = len(s.Result.Images)
	default:
		e.Outcome = string(tiktok.KindUnknown)
	}
	return e
}

func linkHost(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SettleHook adapts a Collector to viewstate.WithSettleHook.
func SettleHook(c Collector) func(viewstate.Settlement) {
	if c == nil {
		return nil
	}
	return func(s viewstate.Settlement) {
		c.Collect(FromSettlement(s))
	}
}
