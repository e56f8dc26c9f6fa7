package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	creditChecks       metric.Int64Counter
	usageRecords       metric.Int64Counter
	transactions       metric.Int64Counter
	pricingCacheHits   metric.Int64Counter
	pricingCacheMisses metric.Int64Counter
	reservationsSwept  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "creditcore"
	}
	meter := provider.Meter(name)

	creditChecks, err := meter.Int64Counter("creditcore_credit_checks_total")
	if err != nil {
		return nil, err
	}
	usageRecords, err := meter.Int64Counter("creditcore_usage_records_total")
	if err != nil {
		return nil, err
	}
	transactions, err := meter.Int64Counter("creditcore_transactions_total")
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter("creditcore_pricing_cache_hits_total")
	if err != nil {
		return nil, err
	}
	cacheMisses, err := meter.Int64Counter("creditcore_pricing_cache_misses_total")
	if err != nil {
		return nil, err
	}
	reservationsSwept, err := meter.Int64Counter("creditcore_reservations_expired_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		creditChecks:       creditChecks,
		usageRecords:       usageRecords,
		transactions:       transactions,
		pricingCacheHits:   cacheHits,
		pricingCacheMisses: cacheMisses,
		reservationsSwept:  reservationsSwept,
	}, nil
}

// RecordCreditCheck counts a credit check and its outcome.
func (m *Metrics) RecordCreditCheck(ctx context.Context, usageType string, granted bool) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	attrs := FilterAttributes(
		attribute.String("usage_type", strings.TrimSpace(usageType)),
		attribute.String("result", result),
	)
	m.creditChecks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUsage counts a recorded usage attempt.
func (m *Metrics) RecordUsage(ctx context.Context, usageType string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	attrs := FilterAttributes(
		attribute.String("usage_type", strings.TrimSpace(usageType)),
		attribute.String("result", result),
	)
	m.usageRecords.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransaction counts an appended ledger transaction.
func (m *Metrics) RecordTransaction(ctx context.Context, txType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("type", strings.TrimSpace(txType)))
	m.transactions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPricingCacheHit counts a pricing cache hit.
func (m *Metrics) RecordPricingCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.pricingCacheHits.Add(ctx, 1)
}

// RecordPricingCacheMiss counts a pricing cache miss.
func (m *Metrics) RecordPricingCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.pricingCacheMisses.Add(ctx, 1)
}

// RecordReservationsSwept counts reservations expired by the sweep.
func (m *Metrics) RecordReservationsSwept(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.reservationsSwept.Add(ctx, count)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":     {},
	"usage_type": {},
	"result":     {},
	"type":       {},
	"model_id":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
