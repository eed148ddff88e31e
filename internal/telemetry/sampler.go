package telemetry

import "github.com/Borislavv/go-ash-urlcache/model"

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	calls     uint64
	refreshed uint64
	failures  uint64
	deferred  uint64
	stale     uint64

	sweeps         uint64
	idleSweeps     uint64
	sweepDue       uint64
	sweepRefreshed uint64
	sweepFailed    uint64
	sweepDeferred  uint64
}

func sample(s model.Stats) snapshot {
	return snapshot{
		calls:     uint64(max(s.Calls, 0)),
		refreshed: uint64(max(s.Refreshed, 0)),
		failures:  uint64(max(s.Failures, 0)),
		deferred:  uint64(max(s.Deferred, 0)),
		stale:     uint64(max(s.Stale, 0)),

		sweeps:         uint64(max(s.Sweeps, 0)),
		idleSweeps:     uint64(max(s.IdleSweeps, 0)),
		sweepDue:       uint64(max(s.SweepDue, 0)),
		sweepRefreshed: uint64(max(s.SweepRefreshed, 0)),
		sweepFailed:    uint64(max(s.SweepFailed, 0)),
		sweepDeferred:  uint64(max(s.SweepDeferred, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		calls:     delta(prev.calls, cur.calls),
		refreshed: delta(prev.refreshed, cur.refreshed),
		failures:  delta(prev.failures, cur.failures),
		deferred:  delta(prev.deferred, cur.deferred),
		stale:     delta(prev.stale, cur.stale),

		sweeps:         delta(prev.sweeps, cur.sweeps),
		idleSweeps:     delta(prev.idleSweeps, cur.idleSweeps),
		sweepDue:       delta(prev.sweepDue, cur.sweepDue),
		sweepRefreshed: delta(prev.sweepRefreshed, cur.sweepRefreshed),
		sweepFailed:    delta(prev.sweepFailed, cur.sweepFailed),
		sweepDeferred:  delta(prev.sweepDeferred, cur.sweepDeferred),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
