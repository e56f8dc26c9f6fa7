package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, a *Allocation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Allocation, error)
	// FindActive returns the active allocation for the scope, or nil. A zero
	// userID selects the org-scoped allocation.
	FindActive(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*Allocation, error)
	// DecrementConditional subtracts amount only when the balance covers it.
	// Returns the number of rows updated (0 or 1).
	DecrementConditional(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (int64, error)
	// Increment adds amount unconditionally. Returns the number of rows updated.
	Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (int64, error)
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
