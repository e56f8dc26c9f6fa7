package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() txdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *txdomain.Transaction) error {
	return db.WithContext(ctx).Create(tx).Error
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]txdomain.Transaction, error) {
	var rows []txdomain.Transaction
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*txdomain.Transaction, error) {
	q := db.WithContext(ctx)
	if orgID != 0 {
		q = q.Where("org_id = ?", orgID)
	}

	var row txdomain.Transaction
	err := q.Order("created_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
