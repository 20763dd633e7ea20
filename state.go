package statez

import "sync"

// State is a named writable cell.
//
// A State separates the value a caller asked for (the dirty value) from the
// value listeners have been told about (the committed value). Writes to a
// managed State only replace the dirty value and queue the State with its
// Manager; the commit happens at the next flush. An unmanaged State, created
// with NewState, commits and notifies inside Set.
type State struct {
	id      int
	name    string
	manager *Manager

	mu        sync.RWMutex
	committed any
	previous  any
	dirty     any
	getter    func() any
	setter    func(any) any

	listeners listenerSet
}

// NewState creates an unmanaged State holding initial.
// Every Set commits immediately and notifies listeners before returning.
func NewState(name string, initial any) *State {
	return newState(0, name, initial, nil)
}

func newState(id int, name string, initial any, m *Manager) *State {
	s := &State{
		id:      id,
		name:    name,
		manager: m,
	}
	s.committed = Clone(initial)
	s.previous = s.committed
	s.dirty = Clone(initial)
	return s
}

// ID returns the registration id, or 0 for an unmanaged State.
func (s *State) ID() int { return s.id }

// Name returns the State's name.
func (s *State) Name() string { return s.name }

// IsComputed always reports false.
func (*State) IsComputed() bool { return false }

// Set requests v as the new value. The setter, if installed, is applied first.
//
// For an unmanaged State, Set commits and notifies synchronously and reports
// whether the committed value changed. For a managed State the outcome is
// only known after the flush; Set queues the write and returns true.
func (s *State) Set(v any) bool {
	s.mu.RLock()
	setter := s.setter
	s.mu.RUnlock()

	if setter != nil {
		v = setter(v)
	}

	s.mu.Lock()
	s.dirty = Clone(v)
	s.mu.Unlock()

	return s.touch()
}

// touch routes a change of the dirty value to the scheduler, or commits
// straight away when there is no manager.
func (s *State) touch() bool {
	if s.manager != nil {
		s.manager.schedule(s.id)
		return true
	}

	if !s.commit() {
		return false
	}
	s.notify()
	return true
}

// commit promotes the dirty value when it differs from the committed one.
// It returns whether a commit happened.
func (s *State) commit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if Equal(s.committed, s.dirty) {
		return false
	}

	s.previous = s.committed
	s.committed = Clone(s.dirty)
	s.dirty = Clone(s.committed)
	return true
}

// revert discards the dirty value in favour of the committed one.
func (s *State) revert() {
	s.mu.Lock()
	s.dirty = Clone(s.committed)
	s.mu.Unlock()
}

// Value returns the committed value. If a getter is installed its result is
// returned instead and becomes the committed value.
func (s *State) Value() any {
	s.mu.RLock()
	getter := s.getter
	s.mu.RUnlock()

	if getter != nil {
		v := getter()
		s.mu.Lock()
		s.committed = Clone(v)
		s.mu.Unlock()
		return v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Clone(s.committed)
}

// Dirty returns a copy of the value that the next flush will commit.
func (s *State) Dirty() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Clone(s.dirty)
}

// Edit returns a Tracked view of the dirty value. Writes through it mark the
// State dirty without replacing the value. It returns nil when the dirty value
// is not a map[string]any or []any.
func (s *State) Edit() *Tracked {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !isComposite(s.dirty) {
		return nil
	}
	return &Tracked{owner: s}
}

// SetGetter installs fn as the value source for Value.
func (s *State) SetGetter(fn func() any) {
	s.mu.Lock()
	s.getter = fn
	s.mu.Unlock()
}

// ClearGetter removes the getter.
func (s *State) ClearGetter() { s.SetGetter(nil) }

// SetSetter installs fn as a transform applied to every write.
func (s *State) SetSetter(fn func(any) any) {
	s.mu.Lock()
	s.setter = fn
	s.mu.Unlock()
}

// ClearSetter removes the setter.
func (s *State) ClearSetter() { s.SetSetter(nil) }

// Subscribe appends fn to the listeners.
func (s *State) Subscribe(fn Listener) *Subscription { return s.listeners.add(fn) }

// Unsubscribe removes sub. It reports false if sub was not registered.
func (s *State) Unsubscribe(sub *Subscription) bool { return s.listeners.remove(sub) }

// UnsubscribeAll removes every listener.
func (s *State) UnsubscribeAll() { s.listeners.removeAll() }

// notify runs the listeners with the values of the last commit.
func (s *State) notify() {
	s.mu.RLock()
	prev, curr := Clone(s.previous), Clone(s.committed)
	s.mu.RUnlock()

	s.listeners.run(s.manager, s, prev, curr)
}

var _ Cell = (*State)(nil)
