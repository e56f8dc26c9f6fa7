package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, r *Reservation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	// Transition moves a pending reservation to a terminal status. Returns the
	// number of rows updated; zero means the row is missing or not pending.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, to Status) (int64, error)
	// ExpireDue marks every pending reservation whose deadline has passed as
	// expired and returns how many were swept.
	ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	// OutstandingTotal sums pending, unexpired holds for the organization.
	OutstandingTotal(ctx context.Context, db *gorm.DB, orgID snowflake.ID, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, status Status) (int64, error)
}
