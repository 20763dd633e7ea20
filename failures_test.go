package statez

import (
	"errors"
	"testing"
)

func failure(cell string) Failure {
	return Failure{Cell: cell, Err: errors.New(cell + " failed")}
}

func TestFailureRing_NilSafe(t *testing.T) {
	var r *failureRing

	// All operations should be safe on nil
	r.record(failure("a"))
	r.reset()

	if r.snapshot() != nil {
		t.Error("expected nil from nil ring")
	}
}

func TestFailureRing_DisabledSizes(t *testing.T) {
	if newFailureRing(0) != nil {
		t.Error("expected nil ring for size 0")
	}
	if newFailureRing(-1) != nil {
		t.Error("expected nil ring for negative size")
	}
}

func TestFailureRing_KeepsOrderUntilFull(t *testing.T) {
	r := newFailureRing(3)
	r.record(failure("a"))
	r.record(failure("b"))

	got := r.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(got))
	}
	if got[0].Cell != "a" || got[1].Cell != "b" {
		t.Errorf("expected [a b], got [%s %s]", got[0].Cell, got[1].Cell)
	}
}

func TestFailureRing_EvictsOldest(t *testing.T) {
	r := newFailureRing(3)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.record(failure(name))
	}

	got := r.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(got))
	}
	// a should be gone, oldest is now b
	for i, want := range []string{"b", "c", "d"} {
		if got[i].Cell != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Cell)
		}
	}
}

func TestFailureRing_ResetThenRecord(t *testing.T) {
	r := newFailureRing(2)
	r.record(failure("a"))
	r.reset()

	if r.snapshot() != nil {
		t.Error("expected nil after reset")
	}

	r.record(failure("b"))
	got := r.snapshot()
	if len(got) != 1 || got[0].Cell != "b" {
		t.Errorf("expected only b after reset, got %v", got)
	}
}
