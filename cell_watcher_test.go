package statez

import (
	"context"
	"testing"
	"time"
)

func TestCellWatcher_MirrorsState(t *testing.T) {
	src := NewState("src", map[string]any{"a": 1})
	mirror := NewState("mirror", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Bind(ctx, mirror, NewCellWatcher(src), nil); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !Equal(mirror.Value(), map[string]any{"a": 1}) {
		t.Fatalf("expected {a: 1}, got %v", mirror.Value())
	}

	src.Set(map[string]any{"a": 2})

	deadline := time.Now().Add(time.Second)
	for !Equal(mirror.Value(), map[string]any{"a": 2}) {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for mirror, got %v", mirror.Value())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCellWatcher_MirrorsComputed(t *testing.T) {
	m, clock := newTestManager(t)
	a, _ := m.CreateState("a", 2)
	double, err := m.CreateComputed("double", func(any) any {
		return a.Value().(int) * 2
	}, a)
	if err != nil {
		t.Fatalf("CreateComputed() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := NewCellWatcher(double).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if v := <-out; string(v) != "4" {
		t.Errorf("expected 4, got %s", v)
	}

	a.Set(5)
	settle(t, m, clock)

	select {
	case v := <-out:
		if string(v) != "10" {
			t.Errorf("expected 10, got %s", v)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for change")
	}
}

func TestCellWatcher_UnencodableValue(t *testing.T) {
	s := NewState("ch", make(chan int))
	if _, err := NewCellWatcher(s).Watch(context.Background()); err == nil {
		t.Error("expected encode error")
	}
}

func TestCellWatcher_UnsubscribesOnCancel(t *testing.T) {
	s := NewState("src", 1)

	ctx, cancel := context.WithCancel(context.Background())
	out, err := NewCellWatcher(s).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-out
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for channel close")
	}

	deadline := time.Now().Add(time.Second)
	for s.listeners.len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the watcher to unsubscribe")
		}
		time.Sleep(time.Millisecond)
	}
}
