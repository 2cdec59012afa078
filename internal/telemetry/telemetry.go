// Package telemetry sets up OpenTelemetry tracing and metrics with graceful
// no-op degradation: a service that never configures an OTLP endpoint still
// runs, it just doesn't export traces, matching pkg/observability's
// pluggable-exporter design in the repo this stack is drawn from.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the telemetry stack.
type Config struct {
	ServiceName     string
	ServiceVersion  string
	Environment     string
	TraceExporter   sdktrace.SpanExporter // nil disables tracing
	TraceSampleRate float64
	Logger          *slog.Logger
}

// Telemetry holds the initialized providers and instruments for this process.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Metrics        *Metrics
	Logger         *slog.Logger

	shutdown func(context.Context) error
}

// Init wires tracing and metrics. Metrics always uses a Prometheus exporter
// so Handler has something to scrape; tracing stays a no-op until
// a TraceExporter is supplied.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tel := &Telemetry{Logger: cfg.Logger}
	var shutdownFuncs []func(context.Context) error

	if cfg.TraceExporter != nil {
		sampler := sdktrace.TraceIDRatioBased(cfg.TraceSampleRate)
		if cfg.TraceSampleRate <= 0 {
			sampler = sdktrace.NeverSample()
		} else if cfg.TraceSampleRate >= 1 {
			sampler = sdktrace.AlwaysSample()
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(cfg.TraceExporter),
			sdktrace.WithSampler(sampler),
		)
		tel.TracerProvider = tp
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
		otel.SetTracerProvider(tp)
		cfg.Logger.Info("tracing initialized", "service", cfg.ServiceName)
	} else {
		tel.TracerProvider = trace.NewNoopTracerProvider()
		cfg.Logger.Info("tracing disabled (no exporter configured)")
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	metrics, err := NewMetrics(mp.Meter("specsvc"))
	if err != nil {
		return nil, fmt.Errorf("create metric instruments: %w", err)
	}
	tel.MeterProvider = mp
	tel.Metrics = metrics
	shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	otel.SetMeterProvider(mp)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	tel.shutdown = func(ctx context.Context) error {
		var firstErr error
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	return tel, nil
}

// Shutdown flushes and tears down the telemetry stack.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	t.Logger.Info("shutting down telemetry")
	return t.shutdown(ctx)
}

// Tracer returns a named tracer.
func (t *Telemetry) Tracer(name string) trace.Tracer { return t.TracerProvider.Tracer(name) }
