package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FallbackPricingRule maps a model name substring to per-1000-token dollar rates.
type FallbackPricingRule struct {
	Match        string  `mapstructure:"match"`
	InputPer1K   float64 `mapstructure:"inputPer1k"`
	OutputPer1K  float64 `mapstructure:"outputPer1k"`
}

// FallbackPricingConfig is the static pricing table used when no tier is found.
type FallbackPricingConfig struct {
	Rules           []FallbackPricingRule `mapstructure:"rules"`
	DefaultInput1K  float64               `mapstructure:"defaultInputPer1k"`
	DefaultOutput1K float64               `mapstructure:"defaultOutputPer1k"`
}

// DefaultFallbackPricing returns the built-in heuristic table.
func DefaultFallbackPricing() FallbackPricingConfig {
	return FallbackPricingConfig{
		Rules: []FallbackPricingRule{
			{Match: "gpt-4", InputPer1K: 0.03, OutputPer1K: 0.06},
			{Match: "gpt-3.5", InputPer1K: 0.0005, OutputPer1K: 0.0015},
			{Match: "gemini", InputPer1K: 0.000125, OutputPer1K: 0.000375},
			{Match: "vertex", InputPer1K: 0.000125, OutputPer1K: 0.000375},
			{Match: "embed", InputPer1K: 0.0001, OutputPer1K: 0},
		},
		DefaultInput1K:  0.001,
		DefaultOutput1K: 0.002,
	}
}

// FallbackPricingHolder serves the current fallback table with hot reload.
type FallbackPricingHolder struct {
	current atomic.Value // holds FallbackPricingConfig
}

// NewFallbackPricingHolder loads pricing.yml if present, otherwise built-in defaults.
func NewFallbackPricingHolder() (*FallbackPricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/creditcore/config")
	v.AddConfigPath("/etc/creditcore")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CREDITCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &FallbackPricingHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultFallbackPricing())
		return holder, nil
	}

	var cfg FallbackPricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validateFallbackPricing(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FallbackPricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validateFallbackPricing(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the current fallback table.
func (h *FallbackPricingHolder) Get() FallbackPricingConfig {
	return h.current.Load().(FallbackPricingConfig)
}

// Store replaces the current table. Used by tests.
func (h *FallbackPricingHolder) Store(cfg FallbackPricingConfig) {
	h.current.Store(cfg)
}

func validateFallbackPricing(cfg FallbackPricingConfig) error {
	if cfg.DefaultInput1K < 0 || cfg.DefaultOutput1K < 0 {
		return errors.New("pricing.default rates cannot be negative")
	}
	for _, rule := range cfg.Rules {
		if strings.TrimSpace(rule.Match) == "" {
			return errors.New("pricing.rules entries need a match substring")
		}
		if rule.InputPer1K < 0 || rule.OutputPer1K < 0 {
			return errors.New("pricing.rules rates cannot be negative")
		}
	}
	return nil
}
