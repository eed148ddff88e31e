package help

import (
	"github.com/Borislavv/go-ash-urlcache/config"
	"time"
)

// Cfg is the reference configuration: 24h URLs swept every 15m with a 10m buffer.
func Cfg() *config.Cache {
	c := &config.Cache{
		Signing: config.SigningCfg{
			Validity: 86400 * time.Second,
			Dedup:    config.DedupEntry,
		},
		Attach: config.AttachCfg{
			Concurrency: 16,
		},
		Sweep: &config.SweepCfg{
			Interval:    900 * time.Second,
			Buffer:      600 * time.Second,
			Concurrency: 8,
		},
	}
	c.AdjustConfig()
	return c
}

func ObjectDedupCfg() *config.Cache {
	c := Cfg()
	c.Signing.Dedup = config.DedupObject
	return c
}

func NoSweepCfg() *config.Cache {
	c := Cfg()
	c.Sweep = nil
	return c
}
