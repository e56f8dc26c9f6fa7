// Package domain contains the pricing tier models and the catalog contract.
// Tiers are global, written by the pricing administration process and
// read-only to the accounting engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PricingTier prices a (model, provider) pair in dollars per 1000 tokens.
type PricingTier struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	ModelID         string       `json:"model_id" gorm:"type:text;not null;index"`
	ModelProvider   string       `json:"model_provider" gorm:"type:text;not null"`
	InputTokenCost  float64      `json:"input_token_cost" gorm:"not null"`
	OutputTokenCost float64      `json:"output_token_cost" gorm:"not null"`
	EffectiveDate   time.Time    `json:"effective_date" gorm:"not null"`
	ExpirationDate  *time.Time   `json:"expiration_date,omitempty"`
	Active          bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PricingTier) TableName() string { return "pricing_tiers" }

// Rate is a resolved price in dollars per 1000 tokens. Source records where
// the lookup was satisfied: cache, store or fallback.
type Rate struct {
	InputPer1K  float64
	OutputPer1K float64
	Source      string
}

const (
	RateSourceCache    = "cache"
	RateSourceStore    = "store"
	RateSourceFallback = "fallback"
)
