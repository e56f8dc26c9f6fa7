package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	alloc "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() alloc.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, a *alloc.Allocation) error {
	return db.WithContext(ctx).Create(a).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*alloc.Allocation, error) {
	var row alloc.Allocation
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*alloc.Allocation, error) {
	var row alloc.Allocation
	err := db.WithContext(ctx).
		Where("org_id = ? AND user_id = ? AND active = ?", orgID, userID, true).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// DecrementConditional guards the subtraction in the WHERE clause so two
// concurrent debits can never take the balance below zero.
func (r *repo) DecrementConditional(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE allocations
		SET remaining_credits = remaining_credits - ?, updated_at = ?
		WHERE id = ? AND active = ? AND remaining_credits >= ?
	`, amount, time.Now().UTC(), id, true, amount)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE allocations
		SET remaining_credits = remaining_credits + ?, updated_at = ?
		WHERE id = ? AND active = ?
	`, amount, time.Now().UTC(), id, true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE allocations
		SET active = ?, updated_at = ?
		WHERE id = ? AND active = ?
	`, false, time.Now().UTC(), id, true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
