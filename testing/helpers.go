// Package testing provides test utilities and helpers for statez managers.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/statez"
)

// NewManager creates a Manager driven by a fake clock, with a failure
// history large enough for assertions. Advance the clock with Settle.
func NewManager(t *testing.T) (*statez.Manager, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	m := statez.NewManager().Clock(clock).FailureHistorySize(64)
	return m, clock
}

// Settle fires the pending coalescing timer and waits for the flush, and any
// flush armed by its listeners, to finish.
func Settle(t *testing.T, m *statez.Manager, clock *clockz.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for m.Phase() != statez.PhaseIdle {
		clock.Advance(time.Second)
		clock.BlockUntilReady()

		wait, stop := context.WithTimeout(ctx, 10*time.Millisecond)
		err := m.Wait(wait)
		stop()
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			t.Fatalf("manager did not settle: %v", ctx.Err())
		}
	}
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireValue fails the test immediately if the named cell is missing or
// its committed value is not canonically equal to expected.
func RequireValue(t *testing.T, m *statez.Manager, name string, expected any) {
	t.Helper()
	got, err := m.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", name, err)
	}
	if !statez.Equal(got, expected) {
		t.Fatalf("expected %s = %v, got %v", name, expected, got)
	}
}

// Notification is one listener call captured by a Recorder.
type Notification struct {
	Cell string
	Prev any
	Curr any
}

// Recorder captures listener calls and batch events for assertions.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	batches       [][]string
}

// Listener returns a statez.Listener that records into r.
func (r *Recorder) Listener() statez.Listener {
	return func(prev, curr any, cell statez.Cell) {
		r.mu.Lock()
		r.notifications = append(r.notifications, Notification{Cell: cell.Name(), Prev: prev, Curr: curr})
		r.mu.Unlock()
	}
}

// Batch is a statez.BatchHandler that records the changed cell names.
func (r *Recorder) Batch(changed []statez.Cell) {
	names := make([]string, len(changed))
	for i, c := range changed {
		names[i] = c.Name()
	}
	r.mu.Lock()
	r.batches = append(r.batches, names)
	r.mu.Unlock()
}

// Notifications returns a copy of the recorded listener calls.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Batches returns a copy of the recorded batch events.
func (r *Recorder) Batches() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}
