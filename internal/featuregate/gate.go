// Package featuregate answers whether a flag is on for a scope. Flags are on
// unless force-disabled through configuration; a real flag provider can be
// swapped in behind the same interface.
package featuregate

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("featuregate",
	fx.Provide(New),
)

type Scope struct {
	OrgID  snowflake.ID
	UserID snowflake.ID
}

type Gate interface {
	IsEnabled(flagKey string, scope Scope) bool
}

type gate struct {
	disabled map[string]struct{}
}

func New(cfg config.Config) Gate {
	disabled := make(map[string]struct{}, len(cfg.Credit.DisabledFlags))
	for _, key := range cfg.Credit.DisabledFlags {
		disabled[strings.ToLower(key)] = struct{}{}
	}
	return &gate{disabled: disabled}
}

func (g *gate) IsEnabled(flagKey string, _ Scope) bool {
	_, off := g.disabled[strings.ToLower(strings.TrimSpace(flagKey))]
	return !off
}
