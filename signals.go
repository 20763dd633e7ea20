package statez

import "github.com/zoobzio/capitan"

// Registration signals.
var (
	// StateCreated is emitted when a writable state is registered.
	StateCreated = capitan.NewSignal(
		"statez.state.created",
		"Writable state registered",
	)

	// ComputedCreated is emitted when a computed state is registered.
	ComputedCreated = capitan.NewSignal(
		"statez.computed.created",
		"Computed state registered",
	)

	// DeclarationRejected is emitted when a registration, lookup or write
	// names a state that is missing, duplicated or read-only.
	DeclarationRejected = capitan.NewSignal(
		"statez.declaration.rejected",
		"Declaration rejected",
	)

	// DependencyDropped is emitted when a computed state lists a dependency
	// it is not allowed to track.
	DependencyDropped = capitan.NewSignal(
		"statez.dependency.dropped",
		"Computed dependency ignored",
	)
)

// Scheduling signals.
var (
	// FlushArmed is emitted when the first write of a cycle starts the
	// coalescing timer.
	FlushArmed = capitan.NewSignal(
		"statez.flush.armed",
		"Coalescing timer armed",
	)

	// FlushCompleted is emitted after every flush, including no-op flushes.
	FlushCompleted = capitan.NewSignal(
		"statez.flush.completed",
		"Flush completed",
	)

	// BatchEmitted is emitted once per flush that changed at least one cell.
	BatchEmitted = capitan.NewSignal(
		"statez.batch.emitted",
		"Batch of changed states delivered",
	)

	// PendingDropped is emitted when pending writes are discarded.
	PendingDropped = capitan.NewSignal(
		"statez.pending.dropped",
		"Pending writes discarded",
	)

	// ListenerFailed is emitted when a listener panics.
	ListenerFailed = capitan.NewSignal(
		"statez.listener.failed",
		"Listener panicked",
	)

	// DeriveFailed is emitted when a computed state's derive function
	// panics. The computed state keeps its previous value.
	DeriveFailed = capitan.NewSignal(
		"statez.derive.failed",
		"Derive panicked",
	)
)

// Source binding signals.
var (
	// SourceStarted is emitted when a watcher is bound to a state.
	SourceStarted = capitan.NewSignal(
		"statez.source.started",
		"Source binding started",
	)

	// SourceStopped is emitted when a bound watcher stops.
	SourceStopped = capitan.NewSignal(
		"statez.source.stopped",
		"Source binding stopped",
	)

	// SourceDecodeFailed is emitted when source bytes cannot be decoded.
	SourceDecodeFailed = capitan.NewSignal(
		"statez.source.decode.failed",
		"Source decode failed",
	)
)
