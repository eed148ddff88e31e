package model

// Stats is a point-in-time view of a session. Counters are cumulative since session start.
type Stats struct {
	Entries  int   // entries in the session
	Keyed    int   // entries carrying an object key
	Records  int64 // cached URL records
	InFlight int   // refreshes currently running

	Calls     int64 // gateway calls issued
	Refreshed int64 // successful mints
	Failures  int64 // failed mints
	Deferred  int64 // refreshes skipped while in flight
	Stale     int64 // mints superseded by a later issuance

	Sweeps         int64
	IdleSweeps     int64
	SweepDue       int64
	SweepRefreshed int64
	SweepFailed    int64
	SweepDeferred  int64
}
