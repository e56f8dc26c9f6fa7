package service

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/fluxori-systems/creditcore/internal/config"
	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CatalogParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       pricingdomain.Repository
	Fallback   *config.FallbackPricingHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Catalog keeps the active tiers in an immutable snapshot map. Refresh swaps
// the whole map; readers never see a half-built snapshot.
type Catalog struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       pricingdomain.Repository
	fallback   *config.FallbackPricingHolder
	obsMetrics *obsmetrics.Metrics

	snapshot atomic.Value // holds map[string]pricingdomain.Rate
	hits     atomic.Uint64
	misses   atomic.Uint64
}

func NewCatalog(p CatalogParams) pricingdomain.Catalog {
	c := &Catalog{
		db:         p.DB,
		log:        p.Log.Named("pricing.catalog"),
		repo:       p.Repo,
		fallback:   p.Fallback,
		obsMetrics: p.ObsMetrics,
	}
	c.snapshot.Store(map[string]pricingdomain.Rate{})
	return c
}

func cacheKey(modelID, provider string) string {
	return modelID + ":" + provider
}

func (c *Catalog) Lookup(ctx context.Context, modelID, provider string) (pricingdomain.Rate, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return pricingdomain.Rate{}, pricingdomain.ErrInvalidModel
	}

	snap := c.snapshot.Load().(map[string]pricingdomain.Rate)
	if rate, ok := snap[cacheKey(modelID, provider)]; ok {
		c.hits.Add(1)
		if c.obsMetrics != nil {
			c.obsMetrics.RecordPricingCacheHit(ctx)
		}
		rate.Source = pricingdomain.RateSourceCache
		return rate, nil
	}
	c.misses.Add(1)
	if c.obsMetrics != nil {
		c.obsMetrics.RecordPricingCacheMiss(ctx)
	}

	tier, err := c.repo.FindActive(ctx, c.db, modelID, provider)
	if err != nil {
		return pricingdomain.Rate{}, err
	}
	if tier != nil {
		return pricingdomain.Rate{
			InputPer1K:  tier.InputTokenCost,
			OutputPer1K: tier.OutputTokenCost,
			Source:      pricingdomain.RateSourceStore,
		}, nil
	}

	return c.fallbackRate(modelID), nil
}

// fallbackRate matches the model name against the static substring table.
func (c *Catalog) fallbackRate(modelID string) pricingdomain.Rate {
	table := c.fallback.Get()
	name := strings.ToLower(modelID)

	for _, rule := range table.Rules {
		if strings.Contains(name, strings.ToLower(rule.Match)) {
			return pricingdomain.Rate{
				InputPer1K:  rule.InputPer1K,
				OutputPer1K: rule.OutputPer1K,
				Source:      pricingdomain.RateSourceFallback,
			}
		}
	}
	return pricingdomain.Rate{
		InputPer1K:  table.DefaultInput1K,
		OutputPer1K: table.DefaultOutput1K,
		Source:      pricingdomain.RateSourceFallback,
	}
}

func (c *Catalog) Stats() pricingdomain.CacheStats {
	return pricingdomain.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *Catalog) Refresh(ctx context.Context) error {
	tiers, err := c.repo.ListActive(ctx, c.db)
	if err != nil {
		return err
	}

	next := make(map[string]pricingdomain.Rate, len(tiers))
	for _, tier := range tiers {
		next[cacheKey(tier.ModelID, tier.ModelProvider)] = pricingdomain.Rate{
			InputPer1K:  tier.InputTokenCost,
			OutputPer1K: tier.OutputTokenCost,
		}
	}

	c.snapshot.Store(next)
	c.log.Debug("pricing snapshot refreshed", zap.Int("tiers", len(next)))
	return nil
}
