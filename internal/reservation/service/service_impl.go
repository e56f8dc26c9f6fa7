package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/clock"
	"github.com/fluxori-systems/creditcore/internal/config"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
	Clock clock.Clock
	Repo  resdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	cfg   config.Config
	clock clock.Clock
	repo  resdomain.Repository
}

func New(p Params) resdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reservation.service"),
		genID: p.GenID,
		cfg:   p.Cfg,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req resdomain.CreateRequest) (*resdomain.Reservation, error) {
	if req.OrgID == 0 {
		return nil, resdomain.ErrInvalidOrganization
	}
	if req.Amount <= 0 {
		return nil, resdomain.ErrInvalidAmount
	}

	usageType := strings.TrimSpace(req.UsageType)
	if usageType == "" {
		return nil, resdomain.ErrInvalidUsageType
	}

	now := s.clock.Now()
	row := &resdomain.Reservation{
		ID:           s.genID.Generate(),
		OrgID:        req.OrgID,
		UserID:       req.UserID,
		AllocationID: req.AllocationID,
		Amount:       req.Amount,
		UsageType:    usageType,
		ModelID:      strings.TrimSpace(req.ModelID),
		OperationID:  strings.TrimSpace(req.OperationID),
		Status:       resdomain.StatusPending,
		ExpiresAt:    now.Add(s.cfg.Credit.ReservationTTL),
		Metadata:     datatypes.JSONMap(req.Metadata),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	s.log.Debug("reservation created",
		zap.String("reservation_id", row.ID.String()),
		zap.String("org_id", row.OrgID.String()),
		zap.Int64("amount", row.Amount),
		zap.Time("expires_at", row.ExpiresAt),
	)
	return row, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*resdomain.Reservation, error) {
	if id == 0 {
		return nil, resdomain.ErrNotFound
	}
	row, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, resdomain.ErrNotFound
	}
	return row, nil
}

func (s *Service) Confirm(ctx context.Context, id snowflake.ID) (*resdomain.Reservation, error) {
	if err := s.transition(ctx, id, resdomain.StatusConfirmed); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) Release(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, resdomain.StatusReleased)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, to resdomain.Status) error {
	if id == 0 {
		return resdomain.ErrNotFound
	}

	rows, err := s.repo.Transition(ctx, s.db, id, to)
	if err != nil {
		return err
	}
	if rows == 0 {
		row, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return err
		}
		if row == nil {
			return resdomain.ErrNotFound
		}
		return resdomain.ErrNotPending
	}
	return nil
}

func (s *Service) Outstanding(ctx context.Context, orgID snowflake.ID) (int64, error) {
	if orgID == 0 {
		return 0, resdomain.ErrInvalidOrganization
	}
	return s.repo.OutstandingTotal(ctx, s.db, orgID, s.clock.Now())
}

func (s *Service) PendingCount(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, s.db, resdomain.StatusPending)
}

func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	swept, err := s.repo.ExpireDue(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.log.Info("expired stale reservations", zap.Int64("count", swept))
	}
	return swept, nil
}
