package service

import (
	"context"
	"sync"
	"time"
)

type Event string

const (
	EventCacheHit         Event = "cache_hit"
	EventCacheMiss        Event = "cache_miss"
	EventUpstreamRequest  Event = "upstream_request"
	EventUpstreamFailed   Event = "upstream_failed"
	EventDecodeFailed     Event = "decode_failed"
	EventValidationFailed Event = "validation_failed"
	EventCacheStored      Event = "cache_stored"
	EventCacheCleared     Event = "cache_cleared"
	EventCacheClearDenied Event = "cache_clear_denied"
)

// EventPayload describes what happened at a pipeline step
type EventPayload struct {
	Key      string
	Duration time.Duration
	Err      error
}

type Listener func(ctx context.Context, event Event, payload EventPayload)

// Dispatcher is a table of listeners keyed by event. A nil Dispatcher
// accepts subscriptions and dispatches to nobody.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[Event][]Listener),
	}
}

// On registers listener for event. Listeners run in registration order.
func (d *Dispatcher) On(event Event, listener Listener) {
	if d == nil || listener == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[event] = append(d.listeners[event], listener)
}

// Dispatch calls the listeners of event synchronously
func (d *Dispatcher) Dispatch(ctx context.Context, event Event, payload EventPayload) {
	if d == nil {
		return
	}
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners[event]...)
	d.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, event, payload)
	}
}
