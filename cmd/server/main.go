package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bc-dunia/loadhog/internal/api"
	"github.com/bc-dunia/loadhog/internal/auth"
	"github.com/bc-dunia/loadhog/internal/events"
	"github.com/bc-dunia/loadhog/internal/hog"
	"github.com/bc-dunia/loadhog/internal/otel"
	"github.com/bc-dunia/loadhog/internal/telemetry"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8080", "HTTP server address")
	instance := flag.String("instance", "loadhog", "Instance name for log attribution")
	authMode := flag.String("auth-mode", "api_key", "Authentication mode: none, api_key")
	apiKeys := flag.String("api-keys", "", "Comma-separated API keys (for api_key mode)")
	insecure := flag.Bool("insecure", false, "Allow unauthenticated mode (only safe on loopback)")
	sampleInterval := flag.Duration("sample-interval", 10*time.Second, "Resource sampling interval while a generator is active")
	otelExporter := flag.String("otel-exporter", "none", "Telemetry exporter: none, stdout, otlp-grpc, otlp-http")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	otelInsecure := flag.Bool("otel-insecure", false, "Disable TLS for OTLP connections")
	devMode := flag.Bool("dev", false, "Development mode: binds to loopback, disables auth")
	flag.Parse()

	if *devMode {
		*addr = "127.0.0.1:8080"
		*insecure = true
		*authMode = string(auth.AuthModeNone)
		fmt.Println("DEVELOPMENT MODE - auth disabled, bound to loopback only")
	}

	if strings.EqualFold(*authMode, string(auth.AuthModeNone)) && !*insecure {
		fmt.Fprintln(os.Stderr, "Refusing to start with auth disabled without --insecure")
		os.Exit(1)
	}

	logger := events.NewEventLogger(*instance)
	events.SetGlobalEventLogger(logger)

	ctx := context.Background()

	exporter := otel.ExporterType(*otelExporter)
	tracer, err := otel.NewTracer(ctx, &otel.Config{
		Enabled:        exporter != otel.ExporterNone,
		ServiceName:    "loadhog",
		ServiceVersion: version,
		ExporterType:   exporter,
		OTLPEndpoint:   *otelEndpoint,
		OTLPInsecure:   *otelInsecure,
		SampleRate:     1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating tracer: %v\n", err)
		os.Exit(1)
	}

	metrics, err := otel.NewMetrics(ctx, &otel.MetricsConfig{
		Enabled:        exporter != otel.ExporterNone,
		ServiceName:    "loadhog",
		ServiceVersion: version,
		ExporterType:   exporter,
		OTLPEndpoint:   *otelEndpoint,
		OTLPInsecure:   *otelInsecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating metrics: %v\n", err)
		os.Exit(1)
	}

	controller := hog.NewController(logger)
	metrics.SetObserver(controller)
	controller.SetExitHandler(func(ev hog.ExitEvent) {
		metrics.RecordExit(ctx, string(ev.Reason))
		metrics.RecordRuntime(ctx, ev.Runtime.Seconds())
	})

	sampler := telemetry.NewSampler(*sampleInterval, controller, logger)
	sampler.Start(ctx)

	server := api.NewServer(*addr, controller)
	server.SetSampler(sampler)
	server.SetMetrics(metrics)
	server.SetTracer(tracer)

	authConfig := &auth.Config{
		Mode:      auth.AuthMode(*authMode),
		SkipPaths: []string{"/healthz", "/readyz", "/hog/v1/status"},
	}
	if *insecure {
		authConfig.Mode = auth.AuthModeNone
	}
	if *apiKeys != "" {
		authConfig.APIKeys = strings.Split(*apiKeys, ",")
	}
	server.SetAuthConfig(authConfig)

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("loadhog controller listening on %s\n", server.URL())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	controller.Shutdown()
	sampler.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing metrics: %v\n", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing traces: %v\n", err)
	}
	fmt.Println("Server stopped")
}
