package testutil

import (
	"sync"

	"github.com/thenoetrevino/tablero/internal/events"
)

// EventRecorder is an events.Publisher that keeps every event it is given.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	// Err, when set, is returned by Publish instead of recording.
	Err error
}

// Publish implements events.Publisher.
func (r *EventRecorder) Publish(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *EventRecorder) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Last returns the most recent event, or false if none was recorded.
func (r *EventRecorder) Last() (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.Event{}, false
	}
	return r.events[len(r.events)-1], true
}
