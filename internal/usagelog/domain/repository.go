package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, row *UsageLog) error
	ListRecent(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]UsageLog, error)
	Aggregate(ctx context.Context, db *gorm.DB, orgID snowflake.ID, start, end time.Time) (*Statistics, error)
}
