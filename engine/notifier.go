package engine

import (
	"time"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/metrics"
)

// Event is a full snapshot of the store. Live and Configured are taken at
// the same instant, so an anchor listed in Live is listed as live in
// Configured too.
type Event struct {
	Seq        uint64
	At         time.Time
	Live       []anchor.Info
	Configured []anchor.Info
}

// notifier keeps the most recent events for a consumer that may lag.
// Each event is a complete snapshot, so dropping the oldest loses nothing.
// Only the engine loop calls publish and close.
type notifier struct {
	ch      chan Event
	seq     uint64
	metrics *metrics.Metrics
}

func newNotifier(buffer int, m *metrics.Metrics) *notifier {
	if buffer < 1 {
		buffer = 1
	}
	return &notifier{ch: make(chan Event, buffer), metrics: m}
}

func (n *notifier) publish(live, configured []anchor.Info) {
	n.seq++
	event := Event{Seq: n.seq, At: time.Now(), Live: live, Configured: configured}

	for {
		select {
		case n.ch <- event:
			return
		default:
		}

		select {
		case <-n.ch:
			n.metrics.IncEventsDropped()
		default:
		}
	}
}

func (n *notifier) close() {
	close(n.ch)
}
