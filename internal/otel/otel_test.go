package otel

import (
	"context"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("expected exporter none, got %s", cfg.ExporterType)
	}
	if cfg.ServiceName != "loadhog" {
		t.Errorf("expected service name loadhog, got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := NewTracer(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewTracer() error: %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected tracer disabled")
	}

	ctx, span := tracer.StartControlSpan(context.Background(), "start")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if span.IsRecording() {
		t.Error("expected a non-recording span from the no-op tracer")
	}
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestStdoutTracerEnabled(t *testing.T) {
	tracer, err := NewTracer(context.Background(), &Config{
		Enabled:      true,
		ServiceName:  "loadhog-test",
		ExporterType: ExporterStdout,
		SampleRate:   1.0,
	})
	if err != nil {
		t.Fatalf("NewTracer() error: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	if !tracer.Enabled() {
		t.Error("expected tracer enabled")
	}

	_, span := tracer.StartControlSpan(context.Background(), "stop")
	if !span.IsRecording() {
		t.Error("expected a recording span")
	}
	span.End()
}

func TestUnknownExporterRejected(t *testing.T) {
	_, err := NewTracer(context.Background(), &Config{
		Enabled:      true,
		ServiceName:  "loadhog-test",
		ExporterType: ExporterType("bogus"),
	})
	if err == nil {
		t.Error("expected error for unknown exporter type")
	}

	_, err = NewMetrics(context.Background(), &MetricsConfig{
		Enabled:      true,
		ServiceName:  "loadhog-test",
		ExporterType: ExporterType("bogus"),
	})
	if err == nil {
		t.Error("expected error for unknown metrics exporter type")
	}
}

type fakeObserver struct {
	active    bool
	allocated int64
}

func (f *fakeObserver) Active() bool          { return f.active }
func (f *fakeObserver) AllocatedBytes() int64 { return f.allocated }

func TestDisabledMetricsRecordSafely(t *testing.T) {
	m, err := NewMetrics(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	if m.Enabled() {
		t.Error("expected metrics disabled")
	}

	// Instruments are nil when disabled; recording must still be safe.
	ctx := context.Background()
	m.SetObserver(&fakeObserver{active: true, allocated: 1 << 20})
	m.RecordStart(ctx, 256, 2)
	m.RecordExit(ctx, "stopped")
	m.RecordRuntime(ctx, 1.5)

	if err := m.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestStdoutMetricsEnabled(t *testing.T) {
	m, err := NewMetrics(context.Background(), &MetricsConfig{
		Enabled:      true,
		ServiceName:  "loadhog-test",
		ExporterType: ExporterStdout,
	})
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	defer m.Shutdown(context.Background())

	if !m.Enabled() {
		t.Error("expected metrics enabled")
	}

	ctx := context.Background()
	m.SetObserver(&fakeObserver{active: true, allocated: 42})
	m.RecordStart(ctx, 128, 4)
	m.RecordExit(ctx, "expired")
	m.RecordRuntime(ctx, 60.0)
}
