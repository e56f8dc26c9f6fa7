package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
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
	Repo       txdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       txdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) txdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("transaction.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Append(ctx context.Context, req txdomain.AppendRequest) (*txdomain.Transaction, error) {
	if req.OrgID == 0 {
		return nil, txdomain.ErrInvalidOrganization
	}
	if req.Amount <= 0 {
		return nil, txdomain.ErrInvalidAmount
	}

	txType := txdomain.TransactionType(strings.ToLower(strings.TrimSpace(string(req.Type))))
	switch txType {
	case txdomain.TransactionTypeCredit, txdomain.TransactionTypeDebit:
	default:
		return nil, txdomain.ErrInvalidType
	}

	row := &txdomain.Transaction{
		ID:            s.genID.Generate(),
		OrgID:         req.OrgID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		Type:          txType,
		UsageType:     strings.TrimSpace(req.UsageType),
		ModelID:       strings.TrimSpace(req.ModelID),
		ModelProvider: strings.TrimSpace(req.ModelProvider),
		InputTokens:   req.InputTokens,
		OutputTokens:  req.OutputTokens,
		OperationID:   strings.TrimSpace(req.OperationID),
		ResourceID:    strings.TrimSpace(req.ResourceID),
		ResourceType:  strings.TrimSpace(req.ResourceType),
		CreatedAt:     time.Now().UTC(),
	}
	if req.Metadata != nil {
		row.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransaction(ctx, string(row.Type))
	}

	return row, nil
}

func (s *Service) ListRecent(ctx context.Context, orgID snowflake.ID, limit int) ([]txdomain.Transaction, error) {
	if orgID == 0 {
		return nil, txdomain.ErrInvalidOrganization
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, s.db, orgID, limit)
}

func (s *Service) Latest(ctx context.Context, orgID snowflake.ID) (*txdomain.Transaction, error) {
	return s.repo.Latest(ctx, s.db, orgID)
}
