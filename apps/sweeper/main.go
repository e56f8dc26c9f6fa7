// Sweeper is the headless maintenance binary: it runs the reservation sweep
// and the pricing refresh without serving HTTP. Deploy it once per cluster;
// the redis lease keeps overlapping replicas from double-sweeping.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fluxori-systems/creditcore/internal/clock"
	"github.com/fluxori-systems/creditcore/internal/config"
	"github.com/fluxori-systems/creditcore/internal/locker"
	"github.com/fluxori-systems/creditcore/internal/migration"
	"github.com/fluxori-systems/creditcore/internal/observability"
	"github.com/fluxori-systems/creditcore/internal/pricing"
	pricingrefresh "github.com/fluxori-systems/creditcore/internal/pricing/refresh"
	"github.com/fluxori-systems/creditcore/internal/reservation"
	"github.com/fluxori-systems/creditcore/internal/reservation/sweep"
	"github.com/fluxori-systems/creditcore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		locker.Module,
		migration.Module,

		// Domain services required by the workers
		reservation.Module,
		pricing.Module,

		// No server module.
		sweep.Module,
		pricingrefresh.Module,
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
