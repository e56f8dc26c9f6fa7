// Package seed bootstraps a default allocation and pricing tiers so a fresh
// local or self-hosted install can serve credit checks immediately.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	"github.com/fluxori-systems/creditcore/internal/config"
	"github.com/fluxori-systems/creditcore/internal/modelcatalog"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	pkgdb "github.com/fluxori-systems/creditcore/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultOrgID          = snowflake.ID(1)
	defaultInitialCredits = int64(10000)
)

// EnsureDefaults seeds the default organization allocation and the pricing
// tiers for the built-in model catalog. Idempotent across restarts.
func EnsureDefaults(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	orgID := defaultOrgID
	if cfg.Bootstrap.DefaultOrgID != 0 {
		orgID = snowflake.ID(cfg.Bootstrap.DefaultOrgID)
	}

	ctx := context.Background()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAllocationTx(ctx, tx, node, orgID); err != nil {
			return err
		}
		return ensurePricingTiersTx(ctx, tx, node)
	})
	if pkgdb.IsDuplicateKeyErr(err) {
		// Another instance finished bootstrapping first.
		return nil
	}
	return err
}

func ensureAllocationTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&allocdomain.Allocation{}).
		Where("org_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	allocation := &allocdomain.Allocation{
		ID:               node.Generate(),
		OrgID:            orgID,
		ModelType:        allocdomain.ModelTypePrepaid,
		TotalCredits:     defaultInitialCredits,
		RemainingCredits: defaultInitialCredits,
		Active:           true,
		Metadata:         datatypes.JSONMap{"seeded": true},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(allocation).Error; err != nil {
		return err
	}

	return tx.WithContext(ctx).Create(&txdomain.Transaction{
		ID:        node.Generate(),
		OrgID:     orgID,
		Amount:    defaultInitialCredits,
		Type:      txdomain.TransactionTypeCredit,
		UsageType: "allocation_created",
		Metadata:  datatypes.JSONMap{"allocation_id": allocation.ID.String(), "seeded": true},
		CreatedAt: now,
	}).Error
}

func ensurePricingTiersTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&pricingdomain.PricingTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, m := range modelcatalog.New().ListModels() {
		tier := &pricingdomain.PricingTier{
			ID:              node.Generate(),
			ModelID:         m.ID,
			ModelProvider:   m.Provider,
			InputTokenCost:  m.CostPer1KInput,
			OutputTokenCost: m.CostPer1KOutput,
			EffectiveDate:   now,
			Active:          m.Enabled,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(tier).Error; err != nil {
			return err
		}
	}
	return nil
}
