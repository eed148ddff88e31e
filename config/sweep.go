package config

import "time"

type SweepCfg struct {
	// Interval is the period of the expiry sweep.
	// Example: "15m".
	Interval time.Duration `yaml:"interval"`

	// Buffer is the renewal margin: a record is refreshed by a sweep once
	// its remaining validity is less than or equal to Buffer.
	// Example: "10m".
	Buffer time.Duration `yaml:"buffer"`

	// Concurrency bounds the number of simultaneous gateway calls of one sweep.
	Concurrency int `yaml:"concurrency"`
}

func (cfg *SweepCfg) Enabled() bool {
	return cfg != nil
}
