package statez

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
)

// Listener is notified after a cell commits a new value.
// prev and curr are copies; mutating them does not affect the cell.
type Listener func(prev, curr any, cell Cell)

// Subscription identifies one registered listener. The same Listener can be
// subscribed more than once; each call returns a distinct Subscription.
type Subscription struct {
	fn Listener
}

// Cell is the common surface of State and Computed.
type Cell interface {
	// ID returns the registration id. Unmanaged states return 0.
	ID() int

	// Name returns the unique name within the owning manager.
	Name() string

	// IsComputed reports whether the cell is a read-only Computed.
	IsComputed() bool

	// Value returns a copy of the committed value.
	Value() any

	// Subscribe appends a listener and returns its handle.
	Subscribe(fn Listener) *Subscription

	// Unsubscribe removes the first registration of sub. It returns false
	// when sub is not registered.
	Unsubscribe(sub *Subscription) bool

	// UnsubscribeAll removes every listener.
	UnsubscribeAll()

	notify()
}

// listenerSet is an ordered list of subscriptions.
type listenerSet struct {
	mu   sync.RWMutex
	subs []*Subscription
}

func (l *listenerSet) add(fn Listener) *Subscription {
	sub := &Subscription{fn: fn}
	l.mu.Lock()
	l.subs = append(l.subs, sub)
	l.mu.Unlock()
	return sub
}

func (l *listenerSet) remove(sub *Subscription) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, s := range l.subs {
		if s == sub {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (l *listenerSet) removeAll() {
	l.mu.Lock()
	l.subs = nil
	l.mu.Unlock()
}

func (l *listenerSet) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// run calls every listener in subscription order. A panicking listener is
// recovered and reported to m; the remaining listeners still run.
func (l *listenerSet) run(m *Manager, cell Cell, prev, curr any) {
	l.mu.RLock()
	subs := make([]*Subscription, len(l.subs))
	copy(subs, l.subs)
	l.mu.RUnlock()

	for _, sub := range subs {
		callListener(m, cell, sub.fn, prev, curr)
	}
}

func callListener(m *Manager, cell Cell, fn Listener, prev, curr any) {
	defer func() {
		if r := recover(); r != nil {
			err := &ListenerError{Cell: cell.Name(), Recovered: r}
			if m != nil {
				m.listenerFailed(cell.Name(), err)
				return
			}
			capitan.Emit(context.Background(), ListenerFailed,
				KeyName.Field(cell.Name()),
				KeyError.Field(err.Error()),
			)
		}
	}()
	fn(prev, curr, cell)
}
