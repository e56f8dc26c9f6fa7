package refresh

import (
	"time"

	appconfig "github.com/fluxori-systems/creditcore/internal/config"
)

// Config controls the pricing snapshot refresh loop.
type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:   30 * time.Minute,
		RunTimeout: 15 * time.Second,
	}
}

func NewConfig(cfg appconfig.Config) Config {
	c := DefaultConfig()
	if cfg.Credit.PricingRefreshInterval > 0 {
		c.Interval = cfg.Credit.PricingRefreshInterval
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
	return c
}
