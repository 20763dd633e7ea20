package statez

import "testing"

func TestFacade_SetCreatesThenQueues(t *testing.T) {
	m, clock := newTestManager(t)
	f := m.Facade()

	if f.Get("count") != nil {
		t.Error("expected nil for an unknown name")
	}

	if !f.Set("count", 1) {
		t.Fatal("expected first Set to create the state")
	}
	if f.Get("count") != 1 {
		t.Errorf("expected created state to hold 1 immediately, got %v", f.Get("count"))
	}

	f.Set("count", 2)
	if f.Get("count") != 1 {
		t.Errorf("expected queued write invisible before flush, got %v", f.Get("count"))
	}

	settle(t, m, clock)
	if f.Get("count") != 2 {
		t.Errorf("expected 2 after flush, got %v", f.Get("count"))
	}
}

func TestFacade_RejectsComputed(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.CreateState("a", 1)
	_, _ = m.CreateComputed("double", func(any) any { return a.Value().(int) * 2 }, a)

	f := m.Facade()
	if f.Set("double", 10) {
		t.Error("expected Set on a computed to fail")
	}
	if f.Get("double") != 2 {
		t.Errorf("expected computed readable through facade, got %v", f.Get("double"))
	}
}
