package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GetActive prefers a user-scoped active allocation and falls back to the
	// org-scoped one. Returns nil when neither exists.
	GetActive(ctx context.Context, orgID, userID snowflake.ID) (*Allocation, error)
	Create(ctx context.Context, req CreateRequest) (*Allocation, error)
	// Decrement atomically subtracts from the balance and appends the debit
	// ledger row in one store transaction. Fails with ErrInsufficientCredits
	// when the balance does not cover the amount, leaving it unchanged.
	Decrement(ctx context.Context, req DecrementRequest) (*Allocation, error)
	// AddCredits atomically increments the balance and appends a credit
	// ledger row. TotalCredits is not treated as a cap.
	AddCredits(ctx context.Context, req AddCreditsRequest) (*Allocation, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	OrgID          snowflake.ID
	UserID         snowflake.ID
	ModelType      ModelType
	TotalCredits   int64
	ResetDate      *time.Time
	ExpirationDate *time.Time
	Metadata       map[string]any
}

// DecrementRequest carries the balance change plus the detail recorded on the
// debit ledger row.
type DecrementRequest struct {
	AllocationID  snowflake.ID
	Amount        int64
	UsageType     string
	ModelID       string
	ModelProvider string
	InputTokens   int64
	OutputTokens  int64
	OperationID   string
	ResourceID    string
	ResourceType  string
	Metadata      map[string]any
}

type AddCreditsRequest struct {
	AllocationID snowflake.ID
	Amount       int64
	ActorID      string
	Metadata     map[string]any
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidModelType    = errors.New("invalid_model_type")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNotFound            = errors.New("allocation_not_found")
	ErrInsufficientCredits = errors.New("insufficient_credits")
)
