// Package statez provides a reactive state container with coalesced updates.
//
// A Manager owns named cells. Writable cells (State) separate the value a
// caller asked for from the value listeners have seen; derived cells
// (Computed) recompute from plain States. Writes made within one coalescing
// window are committed together by a single flush, which then recomputes the
// affected Computed cells in dependency order and notifies every changed cell
// exactly once.
//
// # Flush
//
// The first write of a cycle arms a timer. When it fires the Manager runs:
//
//	commit pending States → recompute Computed by level → batch event → listeners
//
// A write that leaves a State canonically equal to its committed value
// produces no batch event and no listener calls. Equality is decided by
// Equal, which compares key-sorted JSON encodings.
//
// # Levels
//
// States are level 0. A Computed sits one level above its highest
// dependency and is recomputed only when one of its dependencies changed in
// the current flush. Computed cells may only depend on States; a Computed
// listed as a dependency is dropped and reported.
//
// # Nested Edits
//
// State.Edit returns a Tracked view of a map or slice value. Writes through
// it change the value in place and queue the State like Set does:
//
//	todo, _ := m.CreateState("todo", map[string]any{"done": false})
//	todo.Edit().Set("done", true) // committed at the next flush
//
// # Diagnostics
//
// Bad declarations and panicking listeners never fail across the public
// boundary. They are emitted as capitan signals (see signals.go), recorded in
// the failure history, and the operation returns an error or false. Every
// signal carries KeyManager so hooks can tell managers apart.
//
//	capitan.Hook(statez.ListenerFailed, func(_ context.Context, e *capitan.Event) {
//	    name, _ := statez.KeyName.From(e)
//	    msg, _ := statez.KeyError.From(e)
//	    log.Printf("listener on %s failed: %s", name, msg)
//	})
//
// # Sources
//
// Bind feeds a State from a Watcher. The core package provides
// ChannelWatcher, CellWatcher and FileWatcher, with JSON, YAML and TOML
// codecs. CellWatcher mirrors one cell into another State.
//
// # Example
//
//	m := statez.NewManager()
//
//	a, _ := m.CreateState("a", 2)
//	b, _ := m.CreateState("b", 0)
//	sum, _ := m.CreateComputed("sum", func(any) any {
//	    x, _ := a.Value().(int)
//	    y, _ := b.Value().(int)
//	    return x + y
//	}, a, b)
//
//	m.OnBatch(func(changed []statez.Cell) {
//	    log.Printf("%d cells changed", len(changed))
//	})
//
//	a.Set(3)
//	b.Set(2)
//	_ = m.Wait(ctx) // sum.Value() == 5
package statez
