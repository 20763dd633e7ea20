package statez

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDelay is the default coalescing window.
const DefaultDelay = 16 * time.Millisecond

// Manager is the registry and scheduler for a set of cells.
type Manager struct {
	id       string
	delay    time.Duration
	clock    clockz.Clock
	metrics  MetricsProvider
	failures *failureRing
	events   *emitter
	facade   *Facade

	mu       sync.Mutex
	states   map[string]Cell
	byID     map[int]Cell
	graph    *graph
	lastID   int
	nameSeq  int
	pending  []int
	queued   map[int]struct{}
	timer    *armedTimer
	flushing bool
	done     chan struct{} // nil while idle, closed on return to idle

	// flushMu keeps flushes run-to-completion.
	flushMu sync.Mutex
}

// armedTimer is the single outstanding coalescing timer.
type armedTimer struct {
	timer clockz.Timer
	stop  chan struct{}
}

// NewManager creates a Manager with the default delay and the real clock.
func NewManager() *Manager {
	m := &Manager{
		id:     uuid.Must(uuid.NewV7()).String(),
		delay:  DefaultDelay,
		clock:  clockz.RealClock,
		events: newEmitter(),
		states: make(map[string]Cell),
		byID:   make(map[int]Cell),
		graph:  newGraph(),
		queued: make(map[int]struct{}),
	}
	m.facade = &Facade{m: m}
	return m
}

// ID returns the instance id carried by every signal this Manager emits.
func (m *Manager) ID() string {
	return m.id
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Delay sets the coalescing window shared by every write in a cycle.
// Default: 16ms. Must be called before the first write.
func (m *Manager) Delay(d time.Duration) *Manager {
	m.delay = d
	return m
}

// Clock sets a custom clock for the coalescing timer.
// Use this with clockz.FakeClock for deterministic tests.
// Must be called before the first write.
func (m *Manager) Clock(clock clockz.Clock) *Manager {
	m.clock = clock
	return m
}

// Metrics sets a metrics provider for observability integration.
// Must be called before the first write.
func (m *Manager) Metrics(provider MetricsProvider) *Manager {
	m.metrics = provider
	return m
}

// FailureHistorySize sets how many recent failures Failures returns.
// Use 0 (default) to disable the history; failures are still emitted as
// signals. Must be called before use.
func (m *Manager) FailureHistorySize(n int) *Manager {
	m.failures = newFailureRing(n)
	return m
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Exists reports whether a cell named name is registered.
func (m *Manager) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[name]
	return ok
}

// CreateState registers a writable State. An empty name is replaced with a
// generated "state_<n>" name. A duplicate name returns ErrDuplicateName and
// leaves the existing cell untouched.
func (m *Manager) CreateState(name string, initial any) (*State, error) {
	m.mu.Lock()
	if name == "" {
		name = m.generateName()
	}
	if _, ok := m.states[name]; ok {
		m.mu.Unlock()
		return nil, m.reject(name, ErrDuplicateName)
	}
	m.lastID++
	s := newState(m.lastID, name, initial, m)
	level := m.register(s, nil)
	m.mu.Unlock()

	capitan.Emit(context.Background(), StateCreated,
		KeyManager.Field(m.id),
		KeyName.Field(name),
		KeyID.Field(s.id),
		KeyLevel.Field(level),
	)
	return s, nil
}

// CreateComputed registers a read-only cell derived by derive. The first value
// is computed before CreateComputed returns.
//
// Dependencies must be States registered with this Manager. Computed cells
// and foreign or nil cells in deps are dropped and reported; the Computed is
// still created from the remaining dependencies.
func (m *Manager) CreateComputed(name string, derive DeriveFunc, deps ...Cell) (*Computed, error) {
	if derive == nil {
		return nil, m.reject(name, ErrNoDerive)
	}

	m.mu.Lock()
	if name == "" {
		name = m.generateName()
	}
	if _, ok := m.states[name]; ok {
		m.mu.Unlock()
		return nil, m.reject(name, ErrDuplicateName)
	}
	ids, dropped := m.filterDeps(deps)
	m.mu.Unlock()

	for _, d := range dropped {
		capitan.Emit(context.Background(), DependencyDropped,
			KeyManager.Field(m.id),
			KeyName.Field(name),
			KeyError.Field(d.Error()),
		)
		m.recordFailure(name, d)
	}

	// derive may read other cells, so the first value is computed unlocked.
	c, err := newComputed(0, name, derive, ids, m)
	if err != nil {
		m.deriveFailed(name, err)
		return nil, fmt.Errorf("state %q: %w", name, err)
	}

	m.mu.Lock()
	if _, ok := m.states[name]; ok {
		m.mu.Unlock()
		return nil, m.reject(name, ErrDuplicateName)
	}
	m.lastID++
	c.id = m.lastID
	level := m.register(c, ids)
	m.mu.Unlock()

	capitan.Emit(context.Background(), ComputedCreated,
		KeyManager.Field(m.id),
		KeyName.Field(name),
		KeyID.Field(c.id),
		KeyLevel.Field(level),
	)
	return c, nil
}

// filterDeps keeps the ids of registered plain States. Caller holds m.mu.
func (m *Manager) filterDeps(deps []Cell) ([]int, []error) {
	var (
		ids     []int
		dropped []error
		seen    = make(map[int]struct{}, len(deps))
	)
	for _, dep := range deps {
		if dep == nil {
			dropped = append(dropped, fmt.Errorf("nil dependency: %w", ErrForeignCell))
			continue
		}
		registered, ok := m.byID[dep.ID()]
		if !ok || registered != dep {
			dropped = append(dropped, fmt.Errorf("dependency %q: %w", dep.Name(), ErrForeignCell))
			continue
		}
		if dep.IsComputed() {
			dropped = append(dropped, fmt.Errorf("dependency %q: %w", dep.Name(), ErrComputedDependency))
			continue
		}
		if _, dup := seen[dep.ID()]; dup {
			continue
		}
		seen[dep.ID()] = struct{}{}
		ids = append(ids, dep.ID())
	}
	return ids, dropped
}

// register stores c and assigns its level. Caller holds m.mu.
func (m *Manager) register(c Cell, deps []int) int {
	m.states[c.Name()] = c
	m.byID[c.ID()] = c
	return m.graph.add(c.ID(), deps)
}

// generateName returns the next free "state_<n>" name. Caller holds m.mu.
func (m *Manager) generateName() string {
	for {
		name := fmt.Sprintf("state_%d", m.nameSeq)
		m.nameSeq++
		if _, taken := m.states[name]; !taken {
			return name
		}
	}
}

// -----------------------------------------------------------------------------
// Lookup, Read and Write
// -----------------------------------------------------------------------------

// Lookup returns the cell registered under name.
func (m *Manager) Lookup(name string) (Cell, error) {
	m.mu.Lock()
	c, ok := m.states[name]
	m.mu.Unlock()
	if !ok {
		return nil, m.reject(name, ErrUnknownState)
	}
	return c, nil
}

// State returns the writable State registered under name.
func (m *Manager) State(name string) (*State, error) {
	c, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*State)
	if !ok {
		return nil, m.reject(name, ErrReadOnly)
	}
	return s, nil
}

// Level returns the dependency level of the named cell.
func (m *Manager) Level(name string) (int, error) {
	c, err := m.Lookup(name)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	level, _ := m.graph.level(c.ID())
	return level, nil
}

// Get returns the committed value of the named cell.
func (m *Manager) Get(name string) (any, error) {
	c, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.Value(), nil
}

// Set queues v for the named State. It returns false when the name is
// unknown or belongs to a Computed.
func (m *Manager) Set(name string, v any) bool {
	s, err := m.State(name)
	if err != nil {
		return false
	}
	return s.Set(v)
}

// -----------------------------------------------------------------------------
// Subscriptions and Events
// -----------------------------------------------------------------------------

// Subscribe adds fn to the named cell, creating a State holding nil when no
// cell has that name.
func (m *Manager) Subscribe(name string, fn Listener) *Subscription {
	m.mu.Lock()
	c, ok := m.states[name]
	m.mu.Unlock()

	if !ok {
		s, err := m.CreateState(name, nil)
		if err != nil {
			// Lost a creation race; the winner is registered now.
			if c, err = m.Lookup(name); err != nil {
				return nil
			}
		} else {
			c = s
		}
	}
	return c.Subscribe(fn)
}

// Unsubscribe removes sub from the named cell.
func (m *Manager) Unsubscribe(name string, sub *Subscription) bool {
	c, err := m.Lookup(name)
	if err != nil {
		return false
	}
	return c.Unsubscribe(sub)
}

// UnsubscribeAll removes every listener of the named cell.
func (m *Manager) UnsubscribeAll(name string) bool {
	c, err := m.Lookup(name)
	if err != nil {
		return false
	}
	c.UnsubscribeAll()
	return true
}

// On registers fn for a manager event. EventBatch is the only event.
func (m *Manager) On(event string, fn BatchHandler) {
	m.events.on(event, fn)
}

// OnBatch registers fn for EventBatch.
func (m *Manager) OnBatch(fn BatchHandler) {
	m.On(EventBatch, fn)
}

// Facade returns the name-keyed get/set adapter for this Manager.
func (m *Manager) Facade() *Facade {
	return m.facade
}

// -----------------------------------------------------------------------------
// Scheduling
// -----------------------------------------------------------------------------

// Phase returns where the Manager is in its flush cycle.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseLocked()
}

func (m *Manager) phaseLocked() Phase {
	switch {
	case m.flushing:
		return PhaseFlushing
	case m.timer != nil:
		return PhaseArmed
	default:
		return PhaseIdle
	}
}

// Pending returns the number of States with a queued write.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// schedule queues id and arms the timer if no flush is scheduled.
func (m *Manager) schedule(id int) {
	m.mu.Lock()
	if _, ok := m.queued[id]; !ok {
		m.queued[id] = struct{}{}
		m.pending = append(m.pending, id)
	}
	from := m.phaseLocked()
	armed := false
	if m.timer == nil {
		m.arm()
		armed = true
	}
	to := m.phaseLocked()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.OnWriteScheduled()
	}
	if armed {
		capitan.Emit(context.Background(), FlushArmed,
			KeyManager.Field(m.id),
			KeyDelay.Field(m.delay),
		)
	}
	m.phaseChanged(from, to)
}

// arm starts the coalescing timer. Caller holds m.mu.
func (m *Manager) arm() {
	t := &armedTimer{
		timer: m.clock.NewTimer(m.delay),
		stop:  make(chan struct{}),
	}
	m.timer = t
	if m.done == nil {
		m.done = make(chan struct{})
	}
	go m.await(t)
}

// disarm stops the outstanding timer, if any. Caller holds m.mu.
func (m *Manager) disarm() {
	if m.timer == nil {
		return
	}
	m.timer.timer.Stop()
	close(m.timer.stop)
	m.timer = nil
}

func (m *Manager) await(t *armedTimer) {
	select {
	case <-t.timer.C():
		m.flush(context.Background(), t)
	case <-t.stop:
	}
}

// Flush commits pending writes now instead of waiting for the timer.
// Flushes do not nest: calling Flush or Wait from a listener blocks forever.
func (m *Manager) Flush(ctx context.Context) {
	m.flush(ctx, nil)
}

// DropPending discards every queued write without committing it. The dirty
// values of the affected States are reset to their committed values.
func (m *Manager) DropPending() {
	m.mu.Lock()
	from := m.phaseLocked()
	ids := m.pending
	m.pending = nil
	m.queued = make(map[int]struct{})
	m.disarm()
	var done chan struct{}
	if !m.flushing {
		done, m.done = m.done, nil
	}
	to := m.phaseLocked()
	states := m.statesLocked(ids)
	m.mu.Unlock()

	for _, s := range states {
		s.revert()
	}

	capitan.Emit(context.Background(), PendingDropped,
		KeyManager.Field(m.id),
		KeyPending.Field(len(ids)),
	)
	m.phaseChanged(from, to)

	if done != nil {
		close(done)
	}
}

// statesLocked resolves ids to States, skipping anything else.
// Caller holds m.mu.
func (m *Manager) statesLocked(ids []int) []*State {
	out := make([]*State, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.byID[id].(*State); ok {
			out = append(out, s)
		}
	}
	return out
}

// flush runs one batch. t identifies the timer that fired; nil forces a
// flush. A timer that was superseded by Flush or DropPending does nothing.
func (m *Manager) flush(ctx context.Context, t *armedTimer) {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	m.mu.Lock()
	if t != nil && m.timer != t {
		m.mu.Unlock()
		return
	}
	from := m.phaseLocked()
	m.disarm()
	states := m.statesLocked(m.pending)
	m.pending = nil
	m.queued = make(map[int]struct{})
	levels := m.computedLevelsLocked()
	m.flushing = true
	m.mu.Unlock()
	m.phaseChanged(from, PhaseFlushing)
	defer m.endFlush()

	start := m.clock.Now()
	changed := m.apply(ctx, states, levels)
	duration := m.clock.Since(start)

	capitan.Emit(ctx, FlushCompleted,
		KeyManager.Field(m.id),
		KeyChanged.Field(len(changed)),
		KeyDuration.Field(duration),
	)
	if m.metrics != nil {
		m.metrics.OnFlush(len(changed), duration)
	}
}

// endFlush leaves the flushing phase and releases waiters when nothing is
// armed.
func (m *Manager) endFlush() {
	m.mu.Lock()
	m.flushing = false
	to := m.phaseLocked()
	var done chan struct{}
	if to == PhaseIdle {
		done, m.done = m.done, nil
	}
	m.mu.Unlock()
	m.phaseChanged(PhaseFlushing, to)

	if done != nil {
		close(done)
	}
}

// computedLevelsLocked resolves the level buckets above 0.
// Caller holds m.mu.
func (m *Manager) computedLevelsLocked() [][]*Computed {
	buckets := m.graph.above()
	out := make([][]*Computed, 0, len(buckets))
	for _, bucket := range buckets {
		cells := make([]*Computed, 0, len(bucket))
		for _, id := range bucket {
			if c, ok := m.byID[id].(*Computed); ok {
				cells = append(cells, c)
			}
		}
		out = append(out, cells)
	}
	return out
}

// apply commits states, recomputes by level, emits the batch and notifies.
// It returns the changed cells in the order they changed.
func (m *Manager) apply(ctx context.Context, states []*State, levels [][]*Computed) []Cell {
	var changed []Cell
	changedIDs := make(map[int]struct{})

	for _, s := range states {
		if s.commit() {
			changed = append(changed, s)
			changedIDs[s.id] = struct{}{}
		}
	}
	if len(changed) == 0 {
		return nil
	}

	for _, bucket := range levels {
		for _, c := range bucket {
			if c.recompute(changedIDs) {
				changed = append(changed, c)
				changedIDs[c.id] = struct{}{}
			}
		}
	}

	m.events.emit(EventBatch, changed, func(r any) {
		m.listenerFailed(EventBatch, &ListenerError{Cell: EventBatch, Recovered: r})
	})
	capitan.Emit(ctx, BatchEmitted,
		KeyManager.Field(m.id),
		KeyChanged.Field(len(changed)),
		KeyNames.Field(names(changed)),
	)

	for _, c := range changed {
		c.notify()
	}
	return changed
}

func names(cells []Cell) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Name()
	}
	return strings.Join(out, ",")
}

// Wait blocks until no flush is armed or running, or ctx ends.
// Writes made by listeners during a flush extend the wait to their flush.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------
// Failure Reporting
// -----------------------------------------------------------------------------

// Failures returns recent non-fatal failures, oldest first.
// Returns nil if the history is not enabled (see FailureHistorySize).
func (m *Manager) Failures() []Failure {
	return m.failures.snapshot()
}

// ClearFailures forgets the recorded failures.
func (m *Manager) ClearFailures() {
	m.failures.reset()
}

// reject reports a declaration error and returns it wrapped with name.
func (m *Manager) reject(name string, cause error) error {
	err := fmt.Errorf("state %q: %w", name, cause)
	capitan.Emit(context.Background(), DeclarationRejected,
		KeyManager.Field(m.id),
		KeyName.Field(name),
		KeyError.Field(err.Error()),
	)
	m.recordFailure(name, err)
	return err
}

func (m *Manager) listenerFailed(name string, err error) {
	capitan.Emit(context.Background(), ListenerFailed,
		KeyManager.Field(m.id),
		KeyName.Field(name),
		KeyError.Field(err.Error()),
	)
	m.recordFailure(name, err)
	if m.metrics != nil {
		m.metrics.OnListenerFailure(name)
	}
}

func (m *Manager) deriveFailed(name string, err error) {
	capitan.Emit(context.Background(), DeriveFailed,
		KeyManager.Field(m.id),
		KeyName.Field(name),
		KeyError.Field(err.Error()),
	)
	m.recordFailure(name, err)
}

func (m *Manager) recordFailure(name string, err error) {
	m.failures.record(Failure{Cell: name, Err: err, At: m.clock.Now()})
}

func (m *Manager) phaseChanged(from, to Phase) {
	if from != to && m.metrics != nil {
		m.metrics.OnPhaseChange(from, to)
	}
}
