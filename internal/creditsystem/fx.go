package creditsystem

import (
	"github.com/fluxori-systems/creditcore/internal/creditsystem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditsystem.service",
	fx.Provide(service.New),
)
