package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/statez"
)

func TestFileBinding_DrivesComputed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	writeFile(t, path, "max: 10\nused: 4\n")

	m := statez.NewManager().Delay(5 * time.Millisecond)
	limits, err := m.CreateState("limits", nil)
	if err != nil {
		t.Fatalf("CreateState() error = %v", err)
	}

	remaining, err := m.CreateComputed("remaining", func(any) any {
		cfg, ok := limits.Value().(map[string]any)
		if !ok {
			return nil
		}
		return cfg["max"].(int) - cfg["used"].(int)
	}, limits)
	if err != nil {
		t.Fatalf("CreateComputed() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := statez.Bind(ctx, limits, statez.NewFileWatcher(path), statez.YAMLCodec{}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if !waitFor(t, time.Second, func() bool { return remaining.Value() == 6 }) {
		t.Fatalf("expected remaining = 6, got %v", remaining.Value())
	}

	writeFile(t, path, "max: 10\nused: 9\n")

	if !waitFor(t, 2*time.Second, func() bool { return remaining.Value() == 1 }) {
		t.Fatalf("expected remaining = 1 after file update, got %v", remaining.Value())
	}
}

func TestFileBinding_InvalidUpdateKeepsValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.json")
	writeFile(t, path, `{"beta": true}`)

	m := statez.NewManager().Delay(5 * time.Millisecond).FailureHistorySize(8)
	flags, _ := m.CreateState("flags", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := statez.Bind(ctx, flags, statez.NewFileWatcher(path), nil); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !waitFor(t, time.Second, func() bool {
		return statez.Equal(flags.Value(), map[string]any{"beta": true})
	}) {
		t.Fatalf("expected initial flags, got %v", flags.Value())
	}

	writeFile(t, path, `{"beta": `)

	if !waitFor(t, 2*time.Second, func() bool { return len(m.Failures()) > 0 }) {
		t.Fatal("expected decode failure to be recorded")
	}
	if !statez.Equal(flags.Value(), map[string]any{"beta": true}) {
		t.Errorf("expected flags unchanged, got %v", flags.Value())
	}
}

func TestFileBinding_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	writeFile(t, path, "[server]\nport = 8080\n")

	m := statez.NewManager().Delay(5 * time.Millisecond)
	app, _ := m.CreateState("app", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := statez.Bind(ctx, app, statez.NewFileWatcher(path), statez.TOMLCodec{}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	want := map[string]any{"server": map[string]any{"port": 8080}}
	if !waitFor(t, time.Second, func() bool { return statez.Equal(app.Value(), want) }) {
		t.Fatalf("expected %v, got %v", want, app.Value())
	}
}
