package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

const (
	DefaultValidity          = 24 * time.Hour
	DefaultSweepInterval     = 15 * time.Minute
	DefaultSweepBuffer       = 10 * time.Minute
	DefaultSweepConcurrency  = 8
	DefaultAttachConcurrency = 16
	DefaultTelemetryInterval = time.Minute
)

// Default returns the reference configuration: 24h URLs, swept every 15m with a 10m buffer.
func Default() *Cache {
	cfg := &Cache{Sweep: &SweepCfg{}}
	cfg.AdjustConfig()
	return cfg
}

// AdjustConfig fills zero values with defaults and normalizes enums.
func (cfg *Cache) AdjustConfig() {
	if cfg.Signing.Validity <= 0 {
		cfg.Signing.Validity = DefaultValidity
	}
	// URLs are requested in whole seconds
	cfg.Signing.Validity = cfg.Signing.Validity.Truncate(time.Second)
	if cfg.Signing.Validity < time.Second {
		cfg.Signing.Validity = time.Second
	}
	if cfg.Signing.Dedup != DedupObject {
		cfg.Signing.Dedup = DedupEntry
	}
	if cfg.Signing.Rate < 0 {
		cfg.Signing.Rate = 0
	}

	if cfg.Attach.Concurrency <= 0 {
		cfg.Attach.Concurrency = DefaultAttachConcurrency
	}

	if cfg.Sweep.Enabled() {
		if cfg.Sweep.Interval <= 0 {
			cfg.Sweep.Interval = DefaultSweepInterval
		}
		if cfg.Sweep.Buffer <= 0 {
			cfg.Sweep.Buffer = DefaultSweepBuffer
		}
		if cfg.Sweep.Concurrency <= 0 {
			cfg.Sweep.Concurrency = DefaultSweepConcurrency
		}
	}

	if cfg.Telemetry.Enabled() && cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = DefaultTelemetryInterval
	}
}

func LoadConfig(path string) (*Cache, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Cache{}
	}
	cfg.AdjustConfig()

	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}
	return data, nil
}
