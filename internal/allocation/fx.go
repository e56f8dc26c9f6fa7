package allocation

import (
	"github.com/fluxori-systems/creditcore/internal/allocation/repository"
	"github.com/fluxori-systems/creditcore/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
