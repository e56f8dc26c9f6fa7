package service

import (
	"context"
	"math"

	"github.com/fluxori-systems/creditcore/internal/config"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type EstimatorParams struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Catalog pricingdomain.Catalog
}

type Estimator struct {
	log              *zap.Logger
	catalog          pricingdomain.Catalog
	creditsPerDollar float64
}

func NewEstimator(p EstimatorParams) pricingdomain.Estimator {
	creditsPerDollar := p.Cfg.Credit.CreditsPerDollar
	if creditsPerDollar <= 0 {
		creditsPerDollar = 1000
	}
	return &Estimator{
		log:              p.Log.Named("pricing.estimator"),
		catalog:          p.Catalog,
		creditsPerDollar: creditsPerDollar,
	}
}

// EstimateCost converts token counts to credits. Lookup failures degrade to a
// flat one-credit-per-1000-tokens heuristic instead of failing the caller.
func (e *Estimator) EstimateCost(ctx context.Context, modelID, provider string, inputTokens, outputTokens int64) int64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	rate, err := e.catalog.Lookup(ctx, modelID, provider)
	if err != nil {
		e.log.Warn("pricing lookup failed, using flat fallback",
			zap.Error(err),
			zap.String("model_id", modelID),
		)
		return flatCost(inputTokens, outputTokens)
	}

	dollars := float64(inputTokens)/1000*rate.InputPer1K + float64(outputTokens)/1000*rate.OutputPer1K
	credits := int64(math.Ceil(dollars * e.creditsPerDollar))
	if credits < 1 {
		credits = 1
	}
	return credits
}

func flatCost(inputTokens, outputTokens int64) int64 {
	credits := int64(math.Ceil(float64(inputTokens+outputTokens) / 1000))
	if credits < 1 {
		credits = 1
	}
	return credits
}
