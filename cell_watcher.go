package statez

import (
	"context"
	"encoding/json"
	"fmt"
)

// CellWatcher emits the JSON encoding of a cell's committed value, once when
// watching starts and again after every change. Binding it to another State
// mirrors the cell, including a Computed, into that State.
type CellWatcher struct {
	cell Cell
}

// NewCellWatcher creates a CellWatcher for c.
func NewCellWatcher(c Cell) *CellWatcher {
	return &CellWatcher{cell: c}
}

// Watch subscribes to the cell until ctx ends. Changes whose value cannot be
// encoded are skipped.
func (w *CellWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	first, err := json.Marshal(w.cell.Value())
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", w.cell.Name(), err)
	}

	pending := make(chan []byte, 1)
	pending <- first

	sub := w.cell.Subscribe(func(_, curr any, _ Cell) {
		raw, err := json.Marshal(curr)
		if err != nil {
			return
		}
		latest(pending, raw)
	})

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer w.cell.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-pending:
				select {
				case out <- raw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
