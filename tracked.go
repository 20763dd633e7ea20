package statez

import "sort"

// Tracked is a mutable view of a State's dirty map[string]any or []any value.
//
// Every write or delete made through a Tracked changes the dirty value in
// place and then queues the owning State exactly as Set would, so nested edits
// reach listeners through the normal flush. Reads never schedule anything.
//
// A Tracked holds a path from the owner's dirty value rather than a pointer
// into it, so a handle keeps working after the State commits and replaces its
// dirty copy. Operations on a path that no longer resolves are no-ops.
type Tracked struct {
	owner *State
	path  []any // string keys and int indexes
}

// resolve walks t.path from the owner's dirty value. Caller holds owner.mu.
func (t *Tracked) resolve() (any, bool) {
	return walk(t.owner.dirty, t.path)
}

func walk(node any, path []any) (any, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := node.(map[string]any)
			if !ok {
				return nil, false
			}
			if node, ok = m[key]; !ok {
				return nil, false
			}
		case int:
			l, ok := node.([]any)
			if !ok || key < 0 || key >= len(l) {
				return nil, false
			}
			node = l[key]
		}
	}
	return node, true
}

// replace stores v at t.path. Caller holds owner.mu.
func (t *Tracked) replace(v any) {
	if len(t.path) == 0 {
		t.owner.dirty = v
		return
	}
	parent, ok := walk(t.owner.dirty, t.path[:len(t.path)-1])
	if !ok {
		return
	}
	switch key := t.path[len(t.path)-1].(type) {
	case string:
		if m, ok := parent.(map[string]any); ok {
			m[key] = v
		}
	case int:
		if l, ok := parent.([]any); ok && key >= 0 && key < len(l) {
			l[key] = v
		}
	}
}

func (t *Tracked) child(step any) *Tracked {
	path := make([]any, len(t.path), len(t.path)+1)
	copy(path, t.path)
	return &Tracked{owner: t.owner, path: append(path, step)}
}

// wrap returns a child Tracked for composite values and v itself otherwise.
func (t *Tracked) wrap(step, v any) any {
	if isComposite(v) {
		return t.child(step)
	}
	return v
}

// Get returns the value under key. Nested maps and slices come back as
// *Tracked reporting to the same State. ok is false when the view is not a
// map or the key is absent.
func (t *Tracked) Get(key string) (any, bool) {
	t.owner.mu.RLock()
	defer t.owner.mu.RUnlock()

	node, ok := t.resolve()
	if !ok {
		return nil, false
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return t.wrap(key, v), true
}

// Set stores v under key and marks the State dirty.
func (t *Tracked) Set(key string, v any) bool {
	t.owner.mu.Lock()
	node, ok := t.resolve()
	m, isMap := node.(map[string]any)
	if !ok || !isMap {
		t.owner.mu.Unlock()
		return false
	}
	m[key] = Clone(v)
	t.owner.mu.Unlock()

	t.owner.touch()
	return true
}

// Delete removes key and marks the State dirty. It reports whether the key
// existed.
func (t *Tracked) Delete(key string) bool {
	t.owner.mu.Lock()
	node, ok := t.resolve()
	m, isMap := node.(map[string]any)
	if !ok || !isMap {
		t.owner.mu.Unlock()
		return false
	}
	if _, exists := m[key]; !exists {
		t.owner.mu.Unlock()
		return false
	}
	delete(m, key)
	t.owner.mu.Unlock()

	t.owner.touch()
	return true
}

// Index returns element i of a slice view, wrapping nested composites.
func (t *Tracked) Index(i int) (any, bool) {
	t.owner.mu.RLock()
	defer t.owner.mu.RUnlock()

	node, ok := t.resolve()
	if !ok {
		return nil, false
	}
	l, ok := node.([]any)
	if !ok || i < 0 || i >= len(l) {
		return nil, false
	}
	return t.wrap(i, l[i]), true
}

// SetIndex replaces element i of a slice view and marks the State dirty.
func (t *Tracked) SetIndex(i int, v any) bool {
	t.owner.mu.Lock()
	node, ok := t.resolve()
	l, isList := node.([]any)
	if !ok || !isList || i < 0 || i >= len(l) {
		t.owner.mu.Unlock()
		return false
	}
	l[i] = Clone(v)
	t.owner.mu.Unlock()

	t.owner.touch()
	return true
}

// Append adds values to the end of a slice view and marks the State dirty.
func (t *Tracked) Append(vs ...any) bool {
	t.owner.mu.Lock()
	node, ok := t.resolve()
	l, isList := node.([]any)
	if !ok || !isList {
		t.owner.mu.Unlock()
		return false
	}
	for _, v := range vs {
		l = append(l, Clone(v))
	}
	t.replace(l)
	t.owner.mu.Unlock()

	t.owner.touch()
	return true
}

// Len returns the number of keys or elements in the view.
func (t *Tracked) Len() int {
	t.owner.mu.RLock()
	defer t.owner.mu.RUnlock()

	node, _ := t.resolve()
	switch x := node.(type) {
	case map[string]any:
		return len(x)
	case []any:
		return len(x)
	default:
		return 0
	}
}

// Keys returns the sorted keys of a map view.
func (t *Tracked) Keys() []string {
	t.owner.mu.RLock()
	defer t.owner.mu.RUnlock()

	node, _ := t.resolve()
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a detached copy of the viewed value.
func (t *Tracked) Snapshot() any {
	t.owner.mu.RLock()
	defer t.owner.mu.RUnlock()

	node, ok := t.resolve()
	if !ok {
		return nil
	}
	return Clone(node)
}
