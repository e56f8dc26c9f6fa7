package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       usagelogdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       usagelogdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) usagelogdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("usagelog.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Append(ctx context.Context, req usagelogdomain.AppendRequest) (*usagelogdomain.UsageLog, error) {
	if req.OrgID == 0 {
		return nil, usagelogdomain.ErrInvalidOrganization
	}

	usageType := strings.TrimSpace(req.UsageType)
	if usageType == "" {
		return nil, usagelogdomain.ErrInvalidUsageType
	}

	row := &usagelogdomain.UsageLog{
		ID:               s.genID.Generate(),
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		UsageType:        usageType,
		ModelID:          strings.TrimSpace(req.ModelID),
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		TotalTokens:      req.InputTokens + req.OutputTokens,
		CreditsUsed:      req.CreditsUsed,
		ProcessingTimeMs: req.ProcessingTimeMs,
		Success:          req.Success,
		ErrorMessage:     strings.TrimSpace(req.ErrorMessage),
		ResourceID:       strings.TrimSpace(req.ResourceID),
		ResourceType:     strings.TrimSpace(req.ResourceType),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordUsage(ctx, usageType, req.Success)
	}

	return row, nil
}

func (s *Service) ListRecent(ctx context.Context, orgID snowflake.ID, limit int) ([]usagelogdomain.UsageLog, error) {
	if orgID == 0 {
		return nil, usagelogdomain.ErrInvalidOrganization
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, s.db, orgID, limit)
}

func (s *Service) Statistics(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*usagelogdomain.Statistics, error) {
	if orgID == 0 {
		return nil, usagelogdomain.ErrInvalidOrganization
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, usagelogdomain.ErrInvalidWindow
	}
	return s.repo.Aggregate(ctx, s.db, orgID, start.UTC(), end.UTC())
}
