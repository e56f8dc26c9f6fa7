package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*Transaction, error)
	ListRecent(ctx context.Context, orgID snowflake.ID, limit int) ([]Transaction, error)
	// Latest returns the most recent ledger row. A zero orgID spans all
	// organizations; used by health reporting.
	Latest(ctx context.Context, orgID snowflake.ID) (*Transaction, error)
}

// AppendRequest carries one ledger row to insert.
type AppendRequest struct {
	OrgID         snowflake.ID
	UserID        snowflake.ID
	Amount        int64
	Type          TransactionType
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

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidType         = errors.New("invalid_transaction_type")
)
