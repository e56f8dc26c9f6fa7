// Package sweep runs the background job that expires timed-out pending
// reservations so their credits become visible again.
package sweep

import (
	"context"
	"time"

	"github.com/fluxori-systems/creditcore/internal/locker"
	obsmetrics "github.com/fluxori-systems/creditcore/internal/observability/metrics"
	resdomain "github.com/fluxori-systems/creditcore/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Reservations resdomain.Service
	Locker       *locker.Locker      `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
	Config       Config              `optional:"true"`
}

type Worker struct {
	log          *zap.Logger
	reservations resdomain.Service
	locker       *locker.Locker
	obsMetrics   *obsmetrics.Metrics
	cfg          Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:          p.Log.Named("reservation.sweep"),
		reservations: p.Reservations,
		locker:       p.Locker,
		obsMetrics:   p.ObsMetrics,
		cfg:          p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("reservation sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	metrics := obsmetrics.Worker()

	if w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, w.cfg.LockKey, w.cfg.LockTTL)
		if err != nil {
			w.log.Warn("sweep lock acquire failed, running unguarded", zap.Error(err))
		} else if !ok {
			metrics.ObserveSweepLockSkipped()
			return nil
		} else {
			defer func() {
				if err := w.locker.Release(ctx, w.cfg.LockKey, token); err != nil {
					w.log.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	swept, err := w.reservations.ExpireDue(ctx)
	metrics.ObserveJobRun(obsmetrics.WorkerJobSweep, time.Since(start), err)
	if err != nil {
		return err
	}

	if swept > 0 && w.obsMetrics != nil {
		w.obsMetrics.RecordReservationsSwept(ctx, swept)
	}
	return nil
}
