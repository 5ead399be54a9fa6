package event

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/Iron-Ham/adversary/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the subscription key for handlers that receive every event.
const wildcard = "*"

// Bus dispatches events to subscribers synchronously.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]Handler
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger,
// which may be nil.
func NewBus(logger *logging.Logger) *Bus {
	return &Bus{
		subscriptions: make(map[string][]Handler),
		logger:        logging.OrNop(logger),
	}
}

// Subscribe registers a handler for one event type. Subscriptions last for
// the life of the bus, which is one critique run.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscriptions[eventType] = append(b.subscriptions[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(wildcard, handler)
}

// Publish dispatches an event to the handlers for its type, then to the
// wildcard handlers, each group in registration order. Publishing on a nil
// Bus is a no-op.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subscriptions[e.EventType()])+len(b.subscriptions[wildcard]))
	targets = append(targets, b.subscriptions[e.EventType()]...)
	targets = append(targets, b.subscriptions[wildcard]...)
	b.mu.RUnlock()

	for _, handler := range targets {
		b.safeCall(handler, e)
	}
}

func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", e.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	handler(e)
}
