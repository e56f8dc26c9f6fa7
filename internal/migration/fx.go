package migration

import (
	allocdomain "github.com/fluxori-systems/creditcore/internal/allocation/domain"
	"github.com/fluxori-systems/creditcore/internal/config"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	"github.com/fluxori-systems/creditcore/internal/seed"
	txdomain "github.com/fluxori-systems/creditcore/internal/transaction/domain"
	usagelogdomain "github.com/fluxori-systems/creditcore/internal/usagelog/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres stores (sqlite for local runs) get the schema via
			// gorm since the embedded SQL is postgres dialect.
			if err := conn.AutoMigrate(
				&allocdomain.Allocation{},
				&resdomain.Reservation{},
				&txdomain.Transaction{},
				&usagelogdomain.UsageLog{},
				&pricingdomain.PricingTier{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.SeedDefaults {
			return seed.EnsureDefaults(conn, cfg)
		}
		return nil
	}),
)
