package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	WorkerJobSweep          = "reservation_sweep"
	WorkerJobPricingRefresh = "pricing_refresh"
)

const (
	WorkerJobReasonDeadlineExceeded     = "deadline_exceeded"
	WorkerJobReasonDBLockTimeout        = "db_lock_timeout"
	WorkerJobReasonSerializationFailure = "serialization_failure"
	WorkerJobReasonUniqueViolation      = "unique_violation"
	WorkerJobReasonUnknown              = "unknown"
)

// WorkerMetrics captures background worker health signals.
type WorkerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobErrors   *prometheus.CounterVec
	sweepLocked prometheus.Counter
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// Worker returns the singleton worker metrics registry.
func Worker() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = newWorkerMetrics(prometheus.DefaultRegisterer)
	})
	return workerMetrics
}

// ResetWorkerMetricsForTest resets the worker metrics singleton for tests.
func ResetWorkerMetricsForTest() {
	workerMetricsOnce = sync.Once{}
	workerMetrics = nil
}

func newWorkerMetrics(registerer prometheus.Registerer) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &WorkerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditcore_worker_job_runs_total",
			Help: "Background worker runs by job and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditcore_worker_job_duration_seconds",
			Help:    "Background worker run duration by job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditcore_worker_job_errors_total",
			Help: "Background worker errors by job and reason.",
		}, []string{"job", "reason"}),
		sweepLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creditcore_worker_sweep_lock_skipped_total",
			Help: "Sweep runs skipped because another replica holds the lock.",
		}),
	}

	registerer.MustRegister(m.jobRuns, m.jobDuration, m.jobErrors, m.sweepLocked)
	return m
}

// ObserveJobRun records a completed worker run.
func (m *WorkerMetrics) ObserveJobRun(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.jobErrors.WithLabelValues(job, ClassifyWorkerJobReason(err)).Inc()
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// ObserveSweepLockSkipped records a sweep run skipped under contention.
func (m *WorkerMetrics) ObserveSweepLockSkipped() {
	if m == nil {
		return
	}
	m.sweepLocked.Inc()
}

// ClassifyWorkerJobReason maps an error to a low-cardinality reason label.
func ClassifyWorkerJobReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WorkerJobReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return WorkerJobReasonUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "55P03":
			return WorkerJobReasonDBLockTimeout
		case "40001":
			return WorkerJobReasonSerializationFailure
		case "23505":
			return WorkerJobReasonUniqueViolation
		}
	}

	return WorkerJobReasonUnknown
}
