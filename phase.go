package statez

// Phase represents where a Manager is in its flush cycle.
type Phase int32

const (
	// PhaseIdle indicates no flush is scheduled.
	PhaseIdle Phase = iota

	// PhaseArmed indicates a write was queued and the coalescing timer is
	// running. Further writes are absorbed into the same flush.
	PhaseArmed

	// PhaseFlushing indicates pending writes are being committed and
	// listeners are running.
	PhaseFlushing
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}
