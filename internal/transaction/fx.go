package transaction

import (
	"github.com/fluxori-systems/creditcore/internal/transaction/repository"
	"github.com/fluxori-systems/creditcore/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
