package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MetricsConfigFrom derives the metrics exporter settings from the tracer Config.
func MetricsConfigFrom(cfg Config) MetricsConfig {
	return MetricsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates and configures a new MeterProvider.
// If metrics are disabled, Meter falls back to the global no-op provider.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{
		logger: logger,
		config: cfg,
	}

	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are enabled.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.config.Enabled && mp.provider != nil
}

// Metric attribute keys
var (
	AttrFileKind     = attribute.Key("file_kind")
	AttrImportMode   = attribute.Key("import_mode")
	AttrImportStatus = attribute.Key("import_status")
	AttrOutcome      = attribute.Key("outcome")
)

// ImportMetrics records bulk import throughput. A nil *ImportMetrics is a
// valid no-op recorder.
type ImportMetrics struct {
	batches  metric.Int64Counter
	records  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewImportMetrics registers the import instruments on meter.
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	batches, err := meter.Int64Counter("oms.import.batches",
		metric.WithDescription("Import batches by terminal status"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter oms.import.batches: %w", err)
	}

	records, err := meter.Int64Counter("oms.import.records",
		metric.WithDescription("Imported records by outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter oms.import.records: %w", err)
	}

	duration, err := meter.Float64Histogram("oms.import.duration",
		metric.WithDescription("Wall time of an import batch"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 60, 300),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram oms.import.duration: %w", err)
	}

	return &ImportMetrics{batches: batches, records: records, duration: duration}, nil
}

// RecordBatch records one finished batch.
func (m *ImportMetrics) RecordBatch(ctx context.Context, kind, mode, status string, success, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}

	common := []attribute.KeyValue{AttrFileKind.String(kind), AttrImportMode.String(mode)}

	m.batches.Add(ctx, 1, metric.WithAttributes(append(common, AttrImportStatus.String(status))...))
	if success > 0 {
		m.records.Add(ctx, int64(success), metric.WithAttributes(append(common, AttrOutcome.String("success"))...))
	}
	if failed > 0 {
		m.records.Add(ctx, int64(failed), metric.WithAttributes(append(common, AttrOutcome.String("error"))...))
	}
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(common...))
}
