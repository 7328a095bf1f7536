package event

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/seedit/seedit-challenge/internal/logging"
)

// Handler receives one challenge lifecycle event. Handlers run on the
// publishing goroutine and must not block it.
type Handler func(Event)

// wildcard is the pseudo event type used by SubscribeAll.
const wildcard = "*"

type subscription struct {
	id      string
	handler Handler
}

// Bus fans challenge events out to the presenter, the metrics collector
// and transports. Delivery is synchronous and in registration order.
type Bus struct {
	mu     sync.RWMutex
	byType map[string][]subscription
	typeOf map[string]string // subscription id -> event type
	nextID atomic.Uint64
	logger *logging.Logger
}

// NewBus creates an empty bus. Handler panics are reported to logger;
// a nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		byType: make(map[string][]subscription),
		typeOf: make(map[string]string),
		logger: logger.WithComponent("event_bus"),
	}
}

// Subscribe registers handler for eventType and returns an id for Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[eventType] = append(b.byType[eventType], subscription{id: id, handler: handler})
	b.typeOf[id] = eventType
	return id
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes the subscription with id. It reports whether one
// was found.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	eventType, ok := b.typeOf[id]
	if !ok {
		return false
	}
	delete(b.typeOf, id)

	subs := b.byType[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.byType[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.byType[eventType]) == 0 {
		delete(b.byType, eventType)
	}
	return true
}

// Publish delivers e to the handlers of its type, then to wildcard
// handlers. A panicking handler is logged and skipped.
func (b *Bus) Publish(e Event) {
	for _, h := range b.handlersFor(e.EventType()) {
		b.dispatch(h, e)
	}
}

// handlersFor snapshots the handlers for eventType so none run under b.mu.
func (b *Bus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	specific, all := b.byType[eventType], b.byType[wildcard]
	out := make([]Handler, 0, len(specific)+len(all))
	for _, sub := range specific {
		out = append(out, sub.handler)
	}
	for _, sub := range all {
		out = append(out, sub.handler)
	}
	return out
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(e)
}

// Clear drops every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType = make(map[string][]subscription)
	b.typeOf = make(map[string]string)
}

// SubscriptionCount returns the number of live subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.typeOf)
}
