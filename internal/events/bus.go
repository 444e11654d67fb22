package events

import (
	"sync"

	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// A nil *Bus is valid and drops everything, so components can treat the bus
// as optional.
type Bus struct {
	dispatcher *event.Dispatcher

	mu     sync.RWMutex
	taps   map[int]func(Event)
	nextID int
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
		taps:       make(map[int]func(Event)),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(ProcessTerminatedEvent{PID: 42})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.tap(ev)

	switch e := ev.(type) {
	case OffsetAppliedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessQuitRequestedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessEscalatedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessTerminatedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessRelaunchedEvent:
		event.Publish(b.dispatcher, e)
	case RelaunchFailedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type selects the event. Returns an unsubscribe function; unknown
// handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e ProcessTerminatedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	if b == nil {
		return func() {}
	}
	switch h := handler.(type) {
	case func(OffsetAppliedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessQuitRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessEscalatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessTerminatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessRelaunchedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RelaunchFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Tap registers fn to run synchronously inside Publish, before subscribers
// are dispatched. Once Publish returns every tap has seen the event, which
// Subscribe handlers do not guarantee. fn may be called concurrently and
// must not block. Returns a function that removes the tap.
func (b *Bus) Tap(fn func(Event)) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.taps[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.taps, id)
		b.mu.Unlock()
	}
}

func (b *Bus) tap(ev Event) {
	b.mu.RLock()
	taps := make([]func(Event), 0, len(b.taps))
	for _, fn := range b.taps {
		taps = append(taps, fn)
	}
	b.mu.RUnlock()

	for _, fn := range taps {
		fn(ev)
	}
}
