package testing

import (
	"testing"
	"time"

	"github.com/zoobzio/statez"
)

func TestWaitFor(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		result := WaitFor(t, 100*time.Millisecond, func() bool {
			return true
		})
		if !result {
			t.Error("expected WaitFor to return true")
		}
	})

	t.Run("condition never met", func(t *testing.T) {
		result := WaitFor(t, 50*time.Millisecond, func() bool {
			return false
		})
		if result {
			t.Error("expected WaitFor to return false on timeout")
		}
	})
}

func TestSettle(t *testing.T) {
	m, clock := NewManager(t)
	s, err := m.CreateState("port", 80)
	if err != nil {
		t.Fatalf("CreateState() error = %v", err)
	}

	s.Set(8080)
	Settle(t, m, clock)

	RequireValue(t, m, "port", 8080)
}

func TestSettle_FollowsListenerWrites(t *testing.T) {
	m, clock := NewManager(t)
	a, _ := m.CreateState("a", 0)
	b, _ := m.CreateState("b", 0)
	a.Subscribe(func(_, curr any, _ statez.Cell) { b.Set(curr) })

	a.Set(3)
	Settle(t, m, clock)

	RequireValue(t, m, "b", 3)
}

func TestSettle_Idle(t *testing.T) {
	m, clock := NewManager(t)
	Settle(t, m, clock)
}

func TestRecorder(t *testing.T) {
	m, clock := NewManager(t)
	rec := &Recorder{}
	m.OnBatch(rec.Batch)
	m.Subscribe("x", rec.Listener())

	m.Set("x", "hello")
	Settle(t, m, clock)

	notes := rec.Notifications()
	if len(notes) != 1 || notes[0].Cell != "x" || notes[0].Prev != nil || notes[0].Curr != "hello" {
		t.Errorf("unexpected notifications: %+v", notes)
	}
	batches := rec.Batches()
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != "x" {
		t.Errorf("unexpected batches: %v", batches)
	}
}
