package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Create opens a pending hold that expires after the configured TTL.
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	Get(ctx context.Context, id snowflake.ID) (*Reservation, error)
	// Confirm marks a pending reservation as charged. Only pending
	// reservations transition; anything else fails with ErrNotPending.
	Confirm(ctx context.Context, id snowflake.ID) (*Reservation, error)
	// Release cancels a pending hold without charging it.
	Release(ctx context.Context, id snowflake.ID) error
	// Outstanding reports the total credits currently held in pending,
	// unexpired reservations for the organization.
	Outstanding(ctx context.Context, orgID snowflake.ID) (int64, error)
	// ExpireDue sweeps timed-out pending reservations into the expired state.
	ExpireDue(ctx context.Context) (int64, error)
	// PendingCount reports how many reservations are currently pending.
	PendingCount(ctx context.Context) (int64, error)
}

type CreateRequest struct {
	OrgID        snowflake.ID
	UserID       snowflake.ID
	AllocationID snowflake.ID
	Amount       int64
	UsageType    string
	ModelID      string
	OperationID  string
	Metadata     map[string]any
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidUsageType    = errors.New("invalid_usage_type")
	ErrNotFound            = errors.New("reservation_not_found")
	ErrNotPending          = errors.New("reservation_not_pending")
)
