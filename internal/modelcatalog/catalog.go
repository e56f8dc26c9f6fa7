// Package modelcatalog is a read-only lookup of the priced models the
// platform exposes. The engine treats it as an external collaborator; this
// in-memory table stands in for the model-administration service.
package modelcatalog

import (
	"strings"

	"go.uber.org/fx"
)

var Module = fx.Module("modelcatalog",
	fx.Provide(New),
)

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type Model struct {
	ID               string     `json:"id"`
	Provider         string     `json:"provider"`
	MaxOutputTokens  int64      `json:"max_output_tokens"`
	CostPer1KInput   float64    `json:"cost_per_1k_input_tokens"`
	CostPer1KOutput  float64    `json:"cost_per_1k_output_tokens"`
	Complexity       Complexity `json:"complexity"`
	Enabled          bool       `json:"is_enabled"`
}

type Catalog interface {
	FindModel(modelID string) (*Model, bool)
	ListModels() []Model
}

type catalog struct {
	models []Model
	byID   map[string]Model
}

func New() Catalog {
	models := defaultModels()
	byID := make(map[string]Model, len(models))
	for _, m := range models {
		byID[strings.ToLower(m.ID)] = m
	}
	return &catalog{models: models, byID: byID}
}

func (c *catalog) FindModel(modelID string) (*Model, bool) {
	m, ok := c.byID[strings.ToLower(strings.TrimSpace(modelID))]
	if !ok {
		return nil, false
	}
	return &m, true
}

func (c *catalog) ListModels() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

func defaultModels() []Model {
	return []Model{
		{ID: "gpt-4", Provider: "openai", MaxOutputTokens: 8192, CostPer1KInput: 0.03, CostPer1KOutput: 0.06, Complexity: ComplexityHigh, Enabled: true},
		{ID: "gpt-4-turbo", Provider: "openai", MaxOutputTokens: 4096, CostPer1KInput: 0.01, CostPer1KOutput: 0.03, Complexity: ComplexityHigh, Enabled: true},
		{ID: "gpt-3.5-turbo", Provider: "openai", MaxOutputTokens: 4096, CostPer1KInput: 0.0005, CostPer1KOutput: 0.0015, Complexity: ComplexityMedium, Enabled: true},
		{ID: "gemini-1.5-pro", Provider: "vertex", MaxOutputTokens: 8192, CostPer1KInput: 0.000125, CostPer1KOutput: 0.000375, Complexity: ComplexityHigh, Enabled: true},
		{ID: "gemini-1.5-flash", Provider: "vertex", MaxOutputTokens: 8192, CostPer1KInput: 0.000075, CostPer1KOutput: 0.0003, Complexity: ComplexityLow, Enabled: true},
		{ID: "text-embedding-3-small", Provider: "openai", MaxOutputTokens: 0, CostPer1KInput: 0.0001, CostPer1KOutput: 0, Complexity: ComplexityLow, Enabled: true},
	}
}
