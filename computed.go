package statez

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/capitan"
)

// DeriveFunc computes a Computed value from its previous value. Source
// states are read through closures rather than passed in.
type DeriveFunc func(prev any) any

// Computed is a named read-only cell derived from plain States.
//
// The first value is computed when the Computed is created. After that it is
// recomputed only during a flush in which one of its dependencies changed,
// and listeners run only when the derived value differs canonically from the
// previous one.
type Computed struct {
	id      int
	name    string
	manager *Manager
	derive  DeriveFunc
	deps    []int

	mu       sync.RWMutex
	value    any
	previous any

	listeners listenerSet
}

// newComputed builds the cell and runs the first derive. A panicking first
// derive is returned as an error wrapping ErrDerivePanicked.
func newComputed(id int, name string, derive DeriveFunc, deps []int, m *Manager) (*Computed, error) {
	c := &Computed{
		id:      id,
		name:    name,
		manager: m,
		derive:  derive,
		deps:    deps,
	}
	v, err := c.run(nil)
	if err != nil {
		return nil, err
	}
	c.value = Clone(v)
	return c, nil
}

// run calls derive, converting a panic into an error.
func (c *Computed) run(prev any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDerivePanicked, r)
		}
	}()
	return c.derive(prev), nil
}

// ID returns the registration id.
func (c *Computed) ID() int { return c.id }

// Name returns the Computed's name.
func (c *Computed) Name() string { return c.name }

// IsComputed always reports true.
func (*Computed) IsComputed() bool { return true }

// Dependencies returns the ids of the states this Computed tracks.
func (c *Computed) Dependencies() []int {
	out := make([]int, len(c.deps))
	copy(out, c.deps)
	return out
}

// Value returns a copy of the memoized value.
func (c *Computed) Value() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clone(c.value)
}

// recompute derives a new value when any dependency is in changed.
// It reports whether the value changed. A panicking derive is reported and
// counts as unchanged.
func (c *Computed) recompute(changed map[int]struct{}) bool {
	if len(changed) == 0 || !hasIntersection(c.deps, changed) {
		return false
	}

	c.mu.RLock()
	prev := Clone(c.value)
	c.mu.RUnlock()

	next, err := c.run(prev)
	if err != nil {
		c.failed(err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if Equal(c.value, next) {
		return false
	}
	c.previous = c.value
	c.value = Clone(next)
	return true
}

// Subscribe appends fn to the listeners.
func (c *Computed) Subscribe(fn Listener) *Subscription { return c.listeners.add(fn) }

// Unsubscribe removes sub. It reports false if sub was not registered.
func (c *Computed) Unsubscribe(sub *Subscription) bool { return c.listeners.remove(sub) }

// UnsubscribeAll removes every listener.
func (c *Computed) UnsubscribeAll() { c.listeners.removeAll() }

func (c *Computed) failed(err error) {
	if c.manager != nil {
		c.manager.deriveFailed(c.name, err)
		return
	}
	capitan.Emit(context.Background(), DeriveFailed,
		KeyName.Field(c.name),
		KeyError.Field(err.Error()),
	)
}

func (c *Computed) notify() {
	c.mu.RLock()
	prev, curr := Clone(c.previous), Clone(c.value)
	c.mu.RUnlock()

	c.listeners.run(c.manager, c, prev, curr)
}

var _ Cell = (*Computed)(nil)
