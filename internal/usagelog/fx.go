package usagelog

import (
	"github.com/fluxori-systems/creditcore/internal/usagelog/repository"
	"github.com/fluxori-systems/creditcore/internal/usagelog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usagelog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
