// Package events fans domain events out to in-process listeners.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domainevents "conceptgraph-backend/domain/events"
)

// Listener receives domain events after the originating mutation committed
type Listener interface {
	HandleEvent(ctx context.Context, event domainevents.DomainEvent)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(ctx context.Context, event domainevents.DomainEvent)

// HandleEvent implements Listener
func (f ListenerFunc) HandleEvent(ctx context.Context, event domainevents.DomainEvent) {
	f(ctx, event)
}

// Dispatcher is a synchronous in-process event dispatcher. Listener failures
// are isolated: a panicking listener is logged and the rest still run.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a listener for all events
func (d *Dispatcher) Subscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Dispatch delivers a batch of events to every listener in order
func (d *Dispatcher) Dispatch(ctx context.Context, batch []domainevents.DomainEvent) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, event := range batch {
		for _, listener := range listeners {
			d.deliver(ctx, listener, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, listener Listener, event domainevents.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event listener panicked",
				zap.String("eventType", event.GetEventType()),
				zap.Any("panic", r),
			)
		}
	}()
	listener.HandleEvent(ctx, event)
}
