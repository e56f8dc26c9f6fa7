package sweep

import (
	"time"

	appconfig "github.com/fluxori-systems/creditcore/internal/config"
)

// Config controls the reservation sweep loop.
type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
	LockKey    string
	LockTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Minute,
		RunTimeout: 30 * time.Second,
		LockKey:    "creditcore:sweep:reservations",
		LockTTL:    time.Minute,
	}
}

func NewConfig(cfg appconfig.Config) Config {
	c := DefaultConfig()
	if cfg.Credit.SweepInterval > 0 {
		c.Interval = cfg.Credit.SweepInterval
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.LockKey == "" {
		c.LockKey = defaults.LockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
