package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event carries a domain notification to registered handlers.
type Event struct {
	Type    string
	Payload interface{}
}

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, event Event) error

// Dispatcher fans events out to handlers synchronously. Handler errors
// are logged, never propagated to the dispatching caller.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewDispatcher builds an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register subscribes a handler to an event type.
func (d *Dispatcher) Register(eventType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Dispatch delivers the event to every handler registered for its type.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Error("event handler failed",
				zap.String("event", event.Type), zap.Error(err))
		}
	}
}
