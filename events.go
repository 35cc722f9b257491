package apiforge

import (
	"context"
	"sync"
)

type Event string

const (
	// EventFetch listeners may substitute the descriptor returned by Fetch.
	EventFetch   Event = "fetch"
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
)

// Listener receives a descriptor. For EventFetch a non-nil result replaces
// the descriptor and skips the remaining listeners; for the other events
// the result is ignored.
type Listener func(ctx context.Context, d *RestServiceDescriptor) *RestServiceDescriptor

// Events is an ordered listener registry.
type Events struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

func newEvents() *Events {
	return &Events{listeners: make(map[Event][]Listener)}
}

// Attach appends l to the listeners of event.
func (e *Events) Attach(event Event, l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners[event] = append(e.listeners[event], l)
}

// filter runs the listeners of event in order and returns the first
// substitute, or d when none substitutes.
func (e *Events) filter(ctx context.Context, event Event, d *RestServiceDescriptor) *RestServiceDescriptor {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, l := range listeners {
		if alt := l(ctx, d); alt != nil {
			return alt
		}
	}
	return d
}

// notify runs every listener of event.
func (e *Events) notify(ctx context.Context, event Event, d *RestServiceDescriptor) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, d)
	}
}
