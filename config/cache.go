package config

import "time"

// Cache groups configuration of all cache subsystems.
// Optional components are disabled by setting them to nil.
type Cache struct {
	// Signing configures how URLs are minted: validity, dedup granularity and gateway pacing.
	Signing SigningCfg `yaml:"signing"`

	// Attach configures the initial bulk mint performed when a batch of entries is loaded.
	Attach AttachCfg `yaml:"attach"`

	// Sweep configures the proactive renewal of URLs approaching expiry.
	// If nil, URLs are renewed only on demand.
	Sweep *SweepCfg `yaml:"sweep"`

	// Telemetry enables periodic stats logs.
	// If nil, no stats are logged.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}

type AttachCfg struct {
	// Concurrency bounds the number of simultaneous gateway calls of one attach.
	Concurrency int `yaml:"concurrency"`
}

type TelemetryCfg struct {
	Interval time.Duration `yaml:"interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
