package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	alloc "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       alloc.Repository
	TxRepo     txdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       alloc.Repository
	txRepo     txdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) alloc.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("allocation.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		txRepo:     p.TxRepo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GetActive(ctx context.Context, orgID, userID snowflake.ID) (*alloc.Allocation, error) {
	if orgID == 0 {
		return nil, alloc.ErrInvalidOrganization
	}

	if userID != 0 {
		row, err := s.repo.FindActive(ctx, s.db, orgID, userID)
		if err != nil {
			return nil, err
		}
		if row != nil {
			return row, nil
		}
	}

	return s.repo.FindActive(ctx, s.db, orgID, 0)
}

func (s *Service) Create(ctx context.Context, req alloc.CreateRequest) (*alloc.Allocation, error) {
	if req.OrgID == 0 {
		return nil, alloc.ErrInvalidOrganization
	}
	if !validModelType(req.ModelType) {
		return nil, alloc.ErrInvalidModelType
	}
	if req.TotalCredits <= 0 {
		return nil, alloc.ErrInvalidAmount
	}

	now := time.Now().UTC()
	row := &alloc.Allocation{
		ID:               s.genID.Generate(),
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		ModelType:        req.ModelType,
		TotalCredits:     req.TotalCredits,
		RemainingCredits: req.TotalCredits,
		ResetDate:        req.ResetDate,
		ExpirationDate:   req.ExpirationDate,
		Active:           true,
		Metadata:         datatypes.JSONMap(req.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, row); err != nil {
			return err
		}
		return s.txRepo.Insert(ctx, tx, &txdomain.Transaction{
			ID:        s.genID.Generate(),
			OrgID:     row.OrgID,
			UserID:    row.UserID,
			Amount:    row.TotalCredits,
			Type:      txdomain.TransactionTypeCredit,
			UsageType: "allocation_created",
			Metadata: datatypes.JSONMap{
				"allocation_id": row.ID.String(),
				"model_type":    string(row.ModelType),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransaction(ctx, string(txdomain.TransactionTypeCredit))
	}

	s.log.Info("allocation created",
		zap.String("allocation_id", row.ID.String()),
		zap.String("org_id", row.OrgID.String()),
		zap.Int64("total_credits", row.TotalCredits),
	)
	return row, nil
}

func (s *Service) Decrement(ctx context.Context, req alloc.DecrementRequest) (*alloc.Allocation, error) {
	if req.AllocationID == 0 {
		return nil, alloc.ErrNotFound
	}
	if req.Amount <= 0 {
		return nil, alloc.ErrInvalidAmount
	}

	var updated *alloc.Allocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.DecrementConditional(ctx, tx, req.AllocationID, req.Amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			row, err := s.repo.FindByID(ctx, tx, req.AllocationID)
			if err != nil {
				return err
			}
			if row == nil || !row.Active {
				return alloc.ErrNotFound
			}
			return alloc.ErrInsufficientCredits
		}

		updated, err = s.repo.FindByID(ctx, tx, req.AllocationID)
		if err != nil {
			return err
		}
		if updated == nil {
			return alloc.ErrNotFound
		}

		return s.txRepo.Insert(ctx, tx, &txdomain.Transaction{
			ID:            s.genID.Generate(),
			OrgID:         updated.OrgID,
			UserID:        updated.UserID,
			Amount:        req.Amount,
			Type:          txdomain.TransactionTypeDebit,
			UsageType:     req.UsageType,
			ModelID:       req.ModelID,
			ModelProvider: req.ModelProvider,
			InputTokens:   req.InputTokens,
			OutputTokens:  req.OutputTokens,
			OperationID:   req.OperationID,
			ResourceID:    req.ResourceID,
			ResourceType:  req.ResourceType,
			Metadata:      datatypes.JSONMap(req.Metadata),
			CreatedAt:     time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransaction(ctx, string(txdomain.TransactionTypeDebit))
	}
	return updated, nil
}

func (s *Service) AddCredits(ctx context.Context, req alloc.AddCreditsRequest) (*alloc.Allocation, error) {
	if req.AllocationID == 0 {
		return nil, alloc.ErrNotFound
	}
	if req.Amount <= 0 {
		return nil, alloc.ErrInvalidAmount
	}

	var updated *alloc.Allocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.Increment(ctx, tx, req.AllocationID, req.Amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return alloc.ErrNotFound
		}

		updated, err = s.repo.FindByID(ctx, tx, req.AllocationID)
		if err != nil {
			return err
		}
		if updated == nil {
			return alloc.ErrNotFound
		}

		meta := datatypes.JSONMap{"allocation_id": req.AllocationID.String()}
		if req.ActorID != "" {
			meta["actor_id"] = req.ActorID
		}
		for k, v := range req.Metadata {
			meta[k] = v
		}

		return s.txRepo.Insert(ctx, tx, &txdomain.Transaction{
			ID:        s.genID.Generate(),
			OrgID:     updated.OrgID,
			UserID:    updated.UserID,
			Amount:    req.Amount,
			Type:      txdomain.TransactionTypeCredit,
			UsageType: "credits_added",
			Metadata:  meta,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransaction(ctx, string(txdomain.TransactionTypeCredit))
	}

	s.log.Info("credits added",
		zap.String("allocation_id", updated.ID.String()),
		zap.Int64("amount", req.Amount),
		zap.Int64("remaining_credits", updated.RemainingCredits),
	)
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return alloc.ErrNotFound
	}

	rows, err := s.repo.Deactivate(ctx, s.db, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		row, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return err
		}
		if row == nil {
			return alloc.ErrNotFound
		}
		// already inactive
	}
	return nil
}

func validModelType(mt alloc.ModelType) bool {
	switch mt {
	case alloc.ModelTypeSubscription, alloc.ModelTypePayAsYouGo, alloc.ModelTypeQuota, alloc.ModelTypePrepaid:
		return true
	}
	return false
}
