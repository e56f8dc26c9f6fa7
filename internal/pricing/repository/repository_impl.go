package repository

import (
	"context"
	"errors"

	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *pricingdomain.PricingTier) error {
	return db.WithContext(ctx).Create(tier).Error
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]pricingdomain.PricingTier, error) {
	var rows []pricingdomain.PricingTier
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("model_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, modelID, provider string) (*pricingdomain.PricingTier, error) {
	var row pricingdomain.PricingTier
	q := db.WithContext(ctx).Where("model_id = ? AND active = ?", modelID, true)
	if provider != "" {
		q = q.Where("model_provider = ?", provider)
	}
	err := q.Order("effective_date DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
