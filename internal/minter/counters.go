package minter

import "sync/atomic"

type minterCounters struct {
	calls     atomic.Int64 // gateway calls issued
	refreshed atomic.Int64 // successful mints
	failures  atomic.Int64 // gateway errors and empty results
	deferred  atomic.Int64 // refreshes skipped because the identifier was in flight
	stale     atomic.Int64 // successful mints superseded by a later issuance
}

func newMinterCounters() *minterCounters {
	return &minterCounters{
		calls:     atomic.Int64{},
		refreshed: atomic.Int64{},
		failures:  atomic.Int64{},
		deferred:  atomic.Int64{},
		stale:     atomic.Int64{},
	}
}

func (c *minterCounters) snapshot() (calls, refreshed, failures, deferred, stale int64) {
	calls = c.calls.Load()
	refreshed = c.refreshed.Load()
	failures = c.failures.Load()
	deferred = c.deferred.Load()
	stale = c.stale.Load()
	return
}
