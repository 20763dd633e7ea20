package statez

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key scheduler events.
type MetricsProvider interface {
	// OnPhaseChange is called when the manager moves between phases.
	OnPhaseChange(from, to Phase)

	// OnWriteScheduled is called for every write queued for the next flush.
	OnWriteScheduled()

	// OnFlush is called after each flush with the number of changed cells
	// and the time spent committing, recomputing and notifying.
	OnFlush(changed int, duration time.Duration)

	// OnListenerFailure is called when a listener of the named cell panics.
	OnListenerFailure(name string)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnPhaseChange(_, _ Phase)        {}
func (NoOpMetricsProvider) OnWriteScheduled()               {}
func (NoOpMetricsProvider) OnFlush(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnListenerFailure(_ string)      {}
