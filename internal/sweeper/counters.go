package sweeper

import "sync/atomic"

type sweeperCounters struct {
	sweeps    atomic.Int64 // sweeps run (ticks and manual)
	idle      atomic.Int64 // sweeps with no keyed entries
	due       atomic.Int64 // entries found within the renewal buffer
	refreshed atomic.Int64 // entries renewed
	failed    atomic.Int64 // renewals the gateway rejected
	deferred  atomic.Int64 // renewals skipped because already in flight
}

func newSweeperCounters() *sweeperCounters {
	return &sweeperCounters{
		sweeps:    atomic.Int64{},
		idle:      atomic.Int64{},
		due:       atomic.Int64{},
		refreshed: atomic.Int64{},
		failed:    atomic.Int64{},
		deferred:  atomic.Int64{},
	}
}

func (c *sweeperCounters) snapshot() (sweeps, idle, due, refreshed, failed, deferred int64) {
	sweeps = c.sweeps.Load()
	idle = c.idle.Load()
	due = c.due.Load()
	refreshed = c.refreshed.Load()
	failed = c.failed.Load()
	deferred = c.deferred.Load()
	return
}
