package protocol

import (
	"reflect"
	"sync"
)

// Emitter is a wildcard event fan-out usable by Kit implementations.
// Handlers are matched for removal by code pointer, mirroring the kit's
// on/off contract. Closures created from the same function literal share
// a code pointer, so Off removes the first such registration; callers
// that need independent removal register at most one handler per kit
// instance, which is how the event manager uses it (one tracker per kit,
// a fresh kit per transfer).
type Emitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// On registers a wildcard handler. The pattern argument exists to satisfy
// the kit contract; only "*" subscriptions are supported.
func (e *Emitter) On(_ string, handler EventHandler) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}

// Off removes a previously registered handler. Matching is by code
// pointer: passing a different closure made from the same literal removes
// one registration, not necessarily the caller's own.
func (e *Emitter) Off(_ string, handler EventHandler) {
	if handler == nil {
		return
	}
	target := reflect.ValueOf(handler).Pointer()
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.handlers {
		if reflect.ValueOf(h).Pointer() == target {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Emit delivers an event to every registered handler.
func (e *Emitter) Emit(event Event) {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// HandlerCount reports the number of registered handlers.
func (e *Emitter) HandlerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}
