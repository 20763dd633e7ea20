package statez

import (
	"sync"
	"time"
)

// Failure is one recorded non-fatal error: a rejected declaration, a
// panicking derive, a panicking listener or an undecodable source payload.
type Failure struct {
	// Cell is the state name involved, if any.
	Cell string

	// Err describes what went wrong.
	Err error

	// At is when the failure was recorded, read from the manager's clock.
	At time.Time
}

// failureRing is a thread-safe ring buffer of recent failures.
type failureRing struct {
	mu      sync.RWMutex
	entries []Failure
	size    int
	head    int
	count   int
}

// newFailureRing creates a ring with the given capacity.
// If size is 0, recording is disabled and a nil ring is returned.
func newFailureRing(size int) *failureRing {
	if size <= 0 {
		return nil
	}
	return &failureRing{
		entries: make([]Failure, size),
		size:    size,
	}
}

// record stores f, evicting the oldest entry when full.
func (r *failureRing) record(f Failure) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = f
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// reset forgets every recorded failure.
func (r *failureRing) reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
	r.head = 0
	r.count = 0
}

// snapshot returns the recorded failures, oldest first.
func (r *failureRing) snapshot() []Failure {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	out := make([]Failure, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := range r.count {
		out[i] = r.entries[(start+i)%r.size]
	}
	return out
}
