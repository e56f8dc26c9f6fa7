package reservation

import (
	"github.com/fluxori-systems/creditcore/internal/reservation/repository"
	"github.com/fluxori-systems/creditcore/internal/reservation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reservation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
