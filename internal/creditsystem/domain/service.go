// Package domain defines the accounting facade: the verbs callers use to
// check, reserve and settle credits, orchestrating the allocation ledger,
// reservations, pricing and the append-only logs underneath.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
)

type Service interface {
	// CheckCredits estimates the operation's cost and answers whether the
	// organization can afford it. Insufficiency is a structured no, not an
	// error. When affordable and an operation id is supplied, a pending
	// reservation is opened and returned.
	CheckCredits(ctx context.Context, req CheckRequest) (*CheckResponse, error)
	// RecordUsage writes the usage log row first, then settles the bill:
	// confirming and charging the reservation's original amount when one is
	// supplied, otherwise debiting the freshly estimated cost. A billing
	// failure surfaces as an error after the usage row has been persisted.
	RecordUsage(ctx context.Context, req RecordUsageRequest) (*usagelogdomain.UsageLog, error)
	ReleaseReservation(ctx context.Context, reservationID snowflake.ID) error

	CreateAllocation(ctx context.Context, req allocdomain.CreateRequest) (*allocdomain.Allocation, error)
	GetActiveAllocation(ctx context.Context, orgID, userID snowflake.ID) (*allocdomain.Allocation, error)
	AddCredits(ctx context.Context, req allocdomain.AddCreditsRequest) (*allocdomain.Allocation, error)

	GetRecentTransactions(ctx context.Context, orgID snowflake.ID, limit int) ([]txdomain.Transaction, error)
	GetRecentUsageLogs(ctx context.Context, orgID snowflake.ID, limit int) ([]usagelogdomain.UsageLog, error)
	GetUsageStatistics(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*usagelogdomain.Statistics, error)

	GetSystemStatus(ctx context.Context) (*SystemStatus, error)
}

type CheckRequest struct {
	OrgID                snowflake.ID
	UserID               snowflake.ID
	UsageType            string
	ModelID              string
	ExpectedInputTokens  int64
	ExpectedOutputTokens int64
	// OperationID opts into reserving: when set and credits suffice, a
	// pending hold is created for the estimated cost.
	OperationID string
	Metadata    map[string]any
}

type CheckResponse struct {
	HasCredits       bool         `json:"has_credits"`
	AvailableCredits int64        `json:"available_credits"`
	EstimatedCost    int64        `json:"estimated_cost"`
	ReservationID    snowflake.ID `json:"reservation_id,omitempty"`
	Reason           string       `json:"reason,omitempty"`
}

type RecordUsageRequest struct {
	OrgID            snowflake.ID
	UserID           snowflake.ID
	UsageType        string
	ModelID          string
	InputTokens      int64
	OutputTokens     int64
	ReservationID    snowflake.ID
	OperationID      string
	ResourceID       string
	ResourceType     string
	ProcessingTimeMs int64
	Success          bool
	ErrorMessage     string
	Metadata         map[string]any
}

type SystemStatus struct {
	Operational       bool                  `json:"is_operational"`
	LatestTransaction *txdomain.Transaction `json:"latest_transaction,omitempty"`
	ReservationCount  int64                 `json:"reservation_count"`
	CacheHitRate      float64               `json:"cache_hit_rate"`
	AverageLatencyMs  float64               `json:"average_latency_ms"`
}

const (
	ReasonNoActiveAllocation  = "No active allocation"
	ReasonUsageTypeDisabled   = "Usage type disabled"
	ReasonInsufficientCredits = "Insufficient credits"
)

var ErrNoActiveAllocation = errors.New("no_active_allocation")
