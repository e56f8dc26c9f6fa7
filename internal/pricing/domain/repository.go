package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *PricingTier) error
	ListActive(ctx context.Context, db *gorm.DB) ([]PricingTier, error)
	FindActive(ctx context.Context, db *gorm.DB, modelID, provider string) (*PricingTier, error)
}
