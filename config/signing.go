package config

import "time"

// DedupMode defines the granularity of the single-flight refresh guard.
type DedupMode string

const (
	// DedupEntry guards refreshes per consuming entry identifier.
	// Two entries sharing an object key may each sign it at the same time.
	DedupEntry DedupMode = "entry"

	// DedupObject additionally coalesces concurrent signing calls for the same object key.
	DedupObject DedupMode = "object"
)

type SigningCfg struct {
	// Validity is the lifetime requested for every signed URL.
	// Example: "24h".
	Validity time.Duration `yaml:"validity"`

	// Dedup selects the single-flight granularity.
	// Supported values:
	//   - "entry":  one in-flight refresh per entry identifier (default)
	//   - "object": as "entry", plus one in-flight gateway call per object key
	Dedup DedupMode `yaml:"dedup"`

	// Rate limits gateway calls per second. Zero means unlimited.
	Rate int `yaml:"rate"`
}

// IsObjectDedup is a fast-path flag for the object-key coalescing mode.
func (cfg *SigningCfg) IsObjectDedup() bool {
	return cfg.Dedup == DedupObject
}
