package acquire

import (
	"time"

	"github.com/cwbudde/algo-wave/core"
	"github.com/cwbudde/algo-wave/quality"
	"github.com/cwbudde/algo-wave/stats/wave"
)

// EventType identifies what an Event carries.
type EventType int

const (
	EventSampleAppended EventType = iota
	EventStatisticsReady
	EventQualityUpdated
	EventError
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventSampleAppended:
		return "sample_appended"
	case EventStatisticsReady:
		return "statistics_ready"
	case EventQualityUpdated:
		return "quality_updated"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a typed notification emitted by the acquisition runtime. Only the
// fields relevant to the Type are populated.
type Event struct {
	Type      EventType
	ChannelID int
	Time      time.Time

	Sample     core.Sample
	Statistics wave.Statistics
	Quality    quality.Snapshot
	Err        error
}

// Subscribe registers a new event listener and returns its channel. The
// channel is buffered; events are dropped for a subscriber that falls behind
// rather than stalling the acquisition loops. The channel is closed when the
// controller stops.
func (c *Controller) Subscribe() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

const subscriberBuffer = 256

// publish delivers an event to all subscribers without ever blocking.
func (c *Controller) publish(ev Event) {
	ev.Time = time.Now()

	c.mu.Lock()
	subs := c.subscribers
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// closeSubscribers closes all listener channels. Callers must hold c.mu.
func (c *Controller) closeSubscribers() {
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
}
