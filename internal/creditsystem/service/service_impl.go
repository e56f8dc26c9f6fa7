package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	creditdomain "github.com/fluxori-systems/creditcore/internal/creditsystem/domain"
	"github.com/fluxori-systems/creditcore/internal/featuregate"
	"github.com/fluxori-systems/creditcore/internal/modelcatalog"
	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Gate         featuregate.Gate
	Models       modelcatalog.Catalog
	Pricing      pricingdomain.Catalog
	Estimator    pricingdomain.Estimator
	Allocations  allocdomain.Service
	Reservations resdomain.Service
	Transactions txdomain.Service
	UsageLogs    usagelogdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	gate         featuregate.Gate
	models       modelcatalog.Catalog
	pricing      pricingdomain.Catalog
	estimator    pricingdomain.Estimator
	allocations  allocdomain.Service
	reservations resdomain.Service
	transactions txdomain.Service
	usageLogs    usagelogdomain.Service
	obsMetrics   *obsmetrics.Metrics

	checkLatency latencyWindow
}

func New(p Params) creditdomain.Service {
	return &Service{
		log:          p.Log.Named("creditsystem.service"),
		gate:         p.Gate,
		models:       p.Models,
		pricing:      p.Pricing,
		estimator:    p.Estimator,
		allocations:  p.Allocations,
		reservations: p.Reservations,
		transactions: p.Transactions,
		usageLogs:    p.UsageLogs,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) provider(modelID string) string {
	if m, ok := s.models.FindModel(modelID); ok {
		return m.Provider
	}
	return ""
}

func (s *Service) CheckCredits(ctx context.Context, req creditdomain.CheckRequest) (*creditdomain.CheckResponse, error) {
	start := time.Now()
	defer func() {
		s.checkLatency.Observe(time.Since(start))
	}()

	if req.OrgID == 0 {
		return nil, allocdomain.ErrInvalidOrganization
	}
	usageType := strings.TrimSpace(req.UsageType)
	if usageType == "" {
		return nil, usagelogdomain.ErrInvalidUsageType
	}

	cost := s.estimator.EstimateCost(ctx, req.ModelID, s.provider(req.ModelID),
		req.ExpectedInputTokens, req.ExpectedOutputTokens)

	resp := &creditdomain.CheckResponse{EstimatedCost: cost}
	defer func() {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordCreditCheck(ctx, usageType, resp.HasCredits)
		}
	}()

	allocation, err := s.allocations.GetActive(ctx, req.OrgID, req.UserID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		resp.Reason = creditdomain.ReasonNoActiveAllocation
		return resp, nil
	}

	scope := featuregate.Scope{OrgID: req.OrgID, UserID: req.UserID}
	if !s.gate.IsEnabled("credit-intensive-"+usageType, scope) {
		resp.Reason = creditdomain.ReasonUsageTypeDisabled
		return resp, nil
	}

	outstanding, err := s.reservations.Outstanding(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}

	resp.AvailableCredits = allocation.RemainingCredits - outstanding
	if resp.AvailableCredits < cost {
		resp.Reason = creditdomain.ReasonInsufficientCredits
		return resp, nil
	}

	resp.HasCredits = true
	if strings.TrimSpace(req.OperationID) != "" {
		reservation, err := s.reservations.Create(ctx, resdomain.CreateRequest{
			OrgID:        req.OrgID,
			UserID:       req.UserID,
			AllocationID: allocation.ID,
			Amount:       cost,
			UsageType:    usageType,
			ModelID:      req.ModelID,
			OperationID:  req.OperationID,
			Metadata:     req.Metadata,
		})
		if err != nil {
			return nil, err
		}
		resp.ReservationID = reservation.ID
	}
	return resp, nil
}

func (s *Service) RecordUsage(ctx context.Context, req creditdomain.RecordUsageRequest) (*usagelogdomain.UsageLog, error) {
	if req.OrgID == 0 {
		return nil, usagelogdomain.ErrInvalidOrganization
	}
	usageType := strings.TrimSpace(req.UsageType)
	if usageType == "" {
		return nil, usagelogdomain.ErrInvalidUsageType
	}

	provider := s.provider(req.ModelID)
	cost := s.estimator.EstimateCost(ctx, req.ModelID, provider, req.InputTokens, req.OutputTokens)

	// Usage is recorded before any billing so a failed debit still leaves an
	// audit trail of the attempt.
	usage, err := s.usageLogs.Append(ctx, usagelogdomain.AppendRequest{
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		UsageType:        usageType,
		ModelID:          req.ModelID,
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		CreditsUsed:      cost,
		ProcessingTimeMs: req.ProcessingTimeMs,
		Success:          req.Success,
		ErrorMessage:     req.ErrorMessage,
		ResourceID:       req.ResourceID,
		ResourceType:     req.ResourceType,
	})
	if err != nil {
		return nil, err
	}

	charge := cost
	var allocationID snowflake.ID

	if req.ReservationID != 0 {
		reservation, err := s.reservations.Get(ctx, req.ReservationID)
		switch {
		case errors.Is(err, resdomain.ErrNotFound):
			// Unknown hold, bill the computed cost directly.
		case err != nil:
			return usage, err
		default:
			if _, err := s.reservations.Confirm(ctx, reservation.ID); err != nil {
				return usage, err
			}
			charge = reservation.Amount
			allocationID = reservation.AllocationID
		}
	}

	if allocationID == 0 {
		allocation, err := s.allocations.GetActive(ctx, req.OrgID, req.UserID)
		if err != nil {
			return usage, err
		}
		if allocation == nil {
			return usage, creditdomain.ErrNoActiveAllocation
		}
		allocationID = allocation.ID
	}

	if _, err := s.allocations.Decrement(ctx, allocdomain.DecrementRequest{
		AllocationID:  allocationID,
		Amount:        charge,
		UsageType:     usageType,
		ModelID:       req.ModelID,
		ModelProvider: provider,
		InputTokens:   req.InputTokens,
		OutputTokens:  req.OutputTokens,
		OperationID:   req.OperationID,
		ResourceID:    req.ResourceID,
		ResourceType:  req.ResourceType,
		Metadata:      req.Metadata,
	}); err != nil {
		s.log.Warn("usage recorded but billing failed",
			zap.Error(err),
			zap.String("org_id", req.OrgID.String()),
			zap.String("usage_log_id", usage.ID.String()),
		)
		return usage, err
	}

	return usage, nil
}

func (s *Service) ReleaseReservation(ctx context.Context, reservationID snowflake.ID) error {
	return s.reservations.Release(ctx, reservationID)
}

func (s *Service) CreateAllocation(ctx context.Context, req allocdomain.CreateRequest) (*allocdomain.Allocation, error) {
	return s.allocations.Create(ctx, req)
}

func (s *Service) GetActiveAllocation(ctx context.Context, orgID, userID snowflake.ID) (*allocdomain.Allocation, error) {
	allocation, err := s.allocations.GetActive(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, allocdomain.ErrNotFound
	}
	return allocation, nil
}

func (s *Service) AddCredits(ctx context.Context, req allocdomain.AddCreditsRequest) (*allocdomain.Allocation, error) {
	return s.allocations.AddCredits(ctx, req)
}

func (s *Service) GetRecentTransactions(ctx context.Context, orgID snowflake.ID, limit int) ([]txdomain.Transaction, error) {
	return s.transactions.ListRecent(ctx, orgID, limit)
}

func (s *Service) GetRecentUsageLogs(ctx context.Context, orgID snowflake.ID, limit int) ([]usagelogdomain.UsageLog, error) {
	return s.usageLogs.ListRecent(ctx, orgID, limit)
}

func (s *Service) GetUsageStatistics(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*usagelogdomain.Statistics, error) {
	return s.usageLogs.Statistics(ctx, orgID, start, end)
}

func (s *Service) GetSystemStatus(ctx context.Context) (*creditdomain.SystemStatus, error) {
	status := &creditdomain.SystemStatus{
		Operational:      true,
		CacheHitRate:     s.pricing.Stats().HitRate(),
		AverageLatencyMs: s.checkLatency.AverageMs(),
	}

	latest, err := s.transactions.Latest(ctx, 0)
	if err != nil {
		status.Operational = false
		return status, nil
	}
	status.LatestTransaction = latest

	pending, err := s.reservations.PendingCount(ctx)
	if err != nil {
		status.Operational = false
		return status, nil
	}
	status.ReservationCount = pending

	return status, nil
}
