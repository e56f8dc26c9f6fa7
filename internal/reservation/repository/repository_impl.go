package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() resdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, row *resdomain.Reservation) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*resdomain.Reservation, error) {
	var row resdomain.Reservation
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Transition guards the state change on status = pending so a confirm and a
// release racing on the same reservation resolve to exactly one winner.
func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, to resdomain.Status) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE reservations
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, to, time.Now().UTC(), id, resdomain.StatusPending)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE reservations
		SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at <= ?
	`, resdomain.StatusExpired, now, resdomain.StatusPending, now)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) OutstandingTotal(ctx context.Context, db *gorm.DB, orgID snowflake.ID, now time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(amount), 0)
		FROM reservations
		WHERE org_id = ? AND status = ? AND expires_at > ?
	`, orgID, resdomain.StatusPending, now).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, status resdomain.Status) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&resdomain.Reservation{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
