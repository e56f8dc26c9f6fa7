package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is insert-only besides reads; the ledger has no update path.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tx *Transaction) error
	ListRecent(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]Transaction, error)
	Latest(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Transaction, error)
}
