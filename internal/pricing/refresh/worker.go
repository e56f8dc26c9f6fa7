// Package refresh runs the background job that rebuilds the pricing catalog
// snapshot from the active tier rows.
package refresh

import (
	"context"
	"time"

	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	pricingdomain "github.com/fluxori-systems/creditcore/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog pricingdomain.Catalog
	Config  Config `optional:"true"`
}

type Worker struct {
	log     *zap.Logger
	catalog pricingdomain.Catalog
	cfg     Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:     p.Log.Named("pricing.refresh"),
		catalog: p.Catalog,
		cfg:     p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	// Populate the snapshot before the first tick so early requests are not
	// all forced through the store path.
	if err := w.RunOnce(ctx); err != nil {
		w.log.Warn("initial pricing refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("pricing refresh run failed", zap.Error(err))
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	err := w.catalog.Refresh(ctx)
	obsmetrics.Worker().ObserveJobRun(obsmetrics.WorkerJobPricingRefresh, time.Since(start), err)
	return err
}
