package model

import "time"

type Outcome uint8

const (
	// Skipped means there was nothing to sign (no object key).
	Skipped Outcome = iota
	// Deferred means a refresh for the same identifier is already in flight.
	Deferred
	// Refreshed means a URL was minted and committed.
	Refreshed
	// Failed means the gateway returned an error or no URL; the cached value was left untouched.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Deferred:
		return "deferred"
	case Refreshed:
		return "refreshed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OK reports whether the outcome counts as success. A deferred refresh succeeds by deferral.
func (o Outcome) OK() bool {
	return o != Failed
}

// Result describes a single mint or refresh attempt.
// URL, Seq and ExpiresAt hold the record that is current in the cache after the attempt.
type Result struct {
	Outcome   Outcome
	ObjectKey string
	URL       string
	Seq       uint64
	ExpiresAt time.Time
	Err       error
}
