package pricing

import (
	"github.com/fluxori-systems/creditcore/internal/pricing/repository"
	"github.com/fluxori-systems/creditcore/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewCatalog),
	fx.Provide(service.NewEstimator),
)
