package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsConfig holds configuration for the OpenTelemetry metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active. Default: false (no-op).
	Enabled bool

	// ServiceName is the name of the service for metric attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional attributes to add to all metrics.
	Attributes map[string]string
}

// DefaultMetricsConfig returns a default configuration with metrics disabled.
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:      false,
		ServiceName:  "loadhog",
		ExporterType: ExporterNone,
	}
}

// GeneratorObserver feeds the observable gauges. The controller implements
// it.
type GeneratorObserver interface {
	Active() bool
	AllocatedBytes() int64
}

// Metrics wraps OpenTelemetry metrics functionality with loadhog-specific
// helpers.
type Metrics struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error

	mu       sync.RWMutex
	observer GeneratorObserver

	// Metric instruments
	startCounter     metric.Int64Counter
	exitCounter      metric.Int64Counter
	runtimeHistogram metric.Float64Histogram
	allocatedGauge   metric.Int64ObservableGauge
	runningGauge     metric.Int64ObservableGauge
	gaugeReg         metric.Registration
}

// NewMetrics creates a new Metrics instance with the given configuration.
func NewMetrics(ctx context.Context, cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultMetricsConfig()
	}

	m := &Metrics{
		config: cfg,
	}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		// Use no-op meter when disabled
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	exporter, err := m.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	res, err := m.createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}

	return m, nil
}

// createExporter creates the appropriate metrics exporter based on configuration.
func (m *Metrics) createExporter(ctx context.Context, cfg *MetricsConfig) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdoutmetric.New()

	case ExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// createResource creates the OpenTelemetry resource with service information.
func (m *Metrics) createResource(cfg *MetricsConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

// registerInstruments creates and registers all metric instruments.
func (m *Metrics) registerInstruments() error {
	var err error

	m.startCounter, err = m.meter.Int64Counter(
		"loadhog.generator.starts",
		metric.WithDescription("Count of load generators started"),
	)
	if err != nil {
		return fmt.Errorf("failed to create start counter: %w", err)
	}

	m.exitCounter, err = m.meter.Int64Counter(
		"loadhog.generator.exits",
		metric.WithDescription("Count of load generator exits by reason"),
	)
	if err != nil {
		return fmt.Errorf("failed to create exit counter: %w", err)
	}

	m.runtimeHistogram, err = m.meter.Float64Histogram(
		"loadhog.generator.runtime",
		metric.WithDescription("Lifetime of exited load generators"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create runtime histogram: %w", err)
	}

	m.allocatedGauge, err = m.meter.Int64ObservableGauge(
		"loadhog.memory.allocated_bytes",
		metric.WithDescription("Bytes retained by the active generator"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create allocated gauge: %w", err)
	}

	m.runningGauge, err = m.meter.Int64ObservableGauge(
		"loadhog.generator.running",
		metric.WithDescription("1 when a generator is active, 0 otherwise"),
	)
	if err != nil {
		return fmt.Errorf("failed to create running gauge: %w", err)
	}

	m.gaugeReg, err = m.meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			m.mu.RLock()
			observer := m.observer
			m.mu.RUnlock()
			if observer == nil {
				return nil
			}
			o.ObserveInt64(m.allocatedGauge, observer.AllocatedBytes())
			running := int64(0)
			if observer.Active() {
				running = 1
			}
			o.ObserveInt64(m.runningGauge, running)
			return nil
		},
		m.allocatedGauge,
		m.runningGauge,
	)
	if err != nil {
		return fmt.Errorf("failed to register gauge callback: %w", err)
	}

	return nil
}

// SetObserver wires the source of the observable gauges.
func (m *Metrics) SetObserver(observer GeneratorObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

// RecordStart records a generator start.
func (m *Metrics) RecordStart(ctx context.Context, memoryMB, intensity int) {
	if m.startCounter == nil {
		return
	}
	m.startCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("memory_mb", memoryMB),
		attribute.Int("intensity", intensity),
	))
}

// RecordExit records a generator exit with its reason (stopped, expired,
// fault).
func (m *Metrics) RecordExit(ctx context.Context, reason string) {
	if m.exitCounter == nil {
		return
	}
	m.exitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordRuntime records the lifetime of an exited generator in seconds.
func (m *Metrics) RecordRuntime(ctx context.Context, seconds float64) {
	if m.runtimeHistogram == nil {
		return
	}
	m.runtimeHistogram.Record(ctx, seconds)
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// Enabled returns whether metrics collection is enabled.
func (m *Metrics) Enabled() bool {
	return m.config.Enabled && m.config.ExporterType != ExporterNone
}
