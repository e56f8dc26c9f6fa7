package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagelogdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, row *usagelogdomain.UsageLog) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]usagelogdomain.UsageLog, error) {
	var rows []usagelogdomain.UsageLog
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

func (r *repo) Aggregate(ctx context.Context, db *gorm.DB, orgID snowflake.ID, start, end time.Time) (*usagelogdomain.Statistics, error) {
	var stats usagelogdomain.Statistics
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS total_requests,
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successful_requests,
			COALESCE(SUM(credits_used), 0) AS total_credits_used,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(AVG(processing_time_ms), 0) AS avg_processing_time_ms
		 FROM usage_logs
		 WHERE org_id = ? AND created_at >= ? AND created_at < ?`,
		orgID,
		start,
		end,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
