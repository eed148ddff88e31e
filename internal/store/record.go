package store

import "time"

// Record is the most recently issued signed URL of one object key.
// It is stored by value, so readers observe either the old or the new record, never a mix.
type Record struct {
	URL       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Seq is the issuance sequence of the URL; zero for records written through Put.
	Seq uint64
}

// Remaining returns the validity left at now (negative once expired).
func (r Record) Remaining(now time.Time) time.Duration {
	return r.ExpiresAt.Sub(now)
}

// IsNewerThan reports whether r was issued after another.
func (r Record) IsNewerThan(another Record) bool {
	return r.Seq > another.Seq
}
