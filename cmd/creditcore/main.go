package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/allocation"
	"github.com/fluxori-systems/creditcore/internal/clock"
	"github.com/fluxori-systems/creditcore/internal/config"
	"github.com/fluxori-systems/creditcore/internal/creditsystem"
	"github.com/fluxori-systems/creditcore/internal/featuregate"
	"github.com/fluxori-systems/creditcore/internal/locker"
	"github.com/fluxori-systems/creditcore/internal/migration"
	"github.com/fluxori-systems/creditcore/internal/modelcatalog"
	"github.com/fluxori-systems/creditcore/internal/observability"
	"github.com/fluxori-systems/creditcore/internal/pricing"
	pricingrefresh "github.com/fluxori-systems/creditcore/internal/pricing/refresh"
	"github.com/fluxori-systems/creditcore/internal/reservation"
	"github.com/fluxori-systems/creditcore/internal/reservation/sweep"
	"github.com/fluxori-systems/creditcore/internal/server"
	"github.com/fluxori-systems/creditcore/internal/tokenestimate"
	"github.com/fluxori-systems/creditcore/internal/transaction"
	"github.com/fluxori-systems/creditcore/internal/usagelog"
	"github.com/fluxori-systems/creditcore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		locker.Module,
		migration.Module,

		// Domain services
		allocation.Module,
		reservation.Module,
		transaction.Module,
		usagelog.Module,
		pricing.Module,
		modelcatalog.Module,
		featuregate.Module,
		tokenestimate.Module,
		creditsystem.Module,

		// Background maintenance
		sweep.Module,
		pricingrefresh.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
