package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*UsageLog, error)
	ListRecent(ctx context.Context, orgID snowflake.ID, limit int) ([]UsageLog, error)
	Statistics(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*Statistics, error)
}

// AppendRequest carries one usage attempt to record.
type AppendRequest struct {
	OrgID            snowflake.ID
	UserID           snowflake.ID
	UsageType        string
	ModelID          string
	InputTokens      int64
	OutputTokens     int64
	CreditsUsed      int64
	ProcessingTimeMs int64
	Success          bool
	ErrorMessage     string
	ResourceID       string
	ResourceType     string
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUsageType    = errors.New("invalid_usage_type")
	ErrInvalidWindow       = errors.New("invalid_reporting_window")
)
