package statez

import "sync"

// EventBatch is the manager event fired once per flush that changed at least
// one cell. Its payload is the changed cells in the order they changed.
const EventBatch = "batch"

// BatchHandler receives the cells changed by one flush.
type BatchHandler func(changed []Cell)

// emitter is a minimal named-event observer registry.
type emitter struct {
	mu       sync.RWMutex
	handlers map[string][]BatchHandler
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[string][]BatchHandler)}
}

func (e *emitter) on(event string, fn BatchHandler) {
	e.mu.Lock()
	e.handlers[event] = append(e.handlers[event], fn)
	e.mu.Unlock()
}

// emit calls the handlers of event in registration order. recoverFn is
// invoked with the panic value of any handler that panics.
func (e *emitter) emit(event string, payload []Cell, recoverFn func(any)) {
	e.mu.RLock()
	handlers := make([]BatchHandler, len(e.handlers[event]))
	copy(handlers, e.handlers[event])
	e.mu.RUnlock()

	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					recoverFn(r)
				}
			}()
			fn(payload)
		}()
	}
}
