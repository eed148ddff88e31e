package sweeper

import "context"

// NoOpSweeper is used when sweeping is disabled.
// It never calls the gateway and reports zero metrics.
type NoOpSweeper struct{}

// Sweep does nothing and returns an empty report.
func (NoOpSweeper) Sweep(context.Context) Report {
	return Report{}
}

// Metrics always returns zero values.
func (NoOpSweeper) Metrics() (sweeps, idle, due, refreshed, failed, deferred int64) {
	return 0, 0, 0, 0, 0, 0
}

// Close does nothing and returns nil.
func (NoOpSweeper) Close() error {
	return nil
}
