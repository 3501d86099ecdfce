package event

import (
	"slices"
	"sync"

	"github.com/immo/backend/internal/domain/shared"
)

// allEvents is the registry key of handlers subscribed to every event type
const allEvents = "*"

// HandlerRegistry maps event types to subscribed handlers
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]shared.EventHandler)}
}

// Register adds handler for eventTypes, or for every type when none is given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		eventTypes = []string{allEvents}
	}
	for _, eventType := range eventTypes {
		if !slices.Contains(r.handlers[eventType], handler) {
			r.handlers[eventType] = append(r.handlers[eventType], handler)
		}
	}
}

// Unregister removes handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for eventType, list := range r.handlers {
		list = slices.DeleteFunc(slices.Clone(list), func(h shared.EventHandler) bool { return h == handler })
		if len(list) == 0 {
			delete(r.handlers, eventType)
			continue
		}
		r.handlers[eventType] = list
	}
}

// GetHandlers returns the handlers of eventType followed by the handlers
// subscribed to every event. The slice is a copy.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Concat(r.handlers[eventType], r.handlers[allEvents])
}
