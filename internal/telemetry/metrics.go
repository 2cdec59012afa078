package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds every metric instrument this service emits.
type Metrics struct {
	CommandDuration metric.Float64Histogram
	CommandTotal    metric.Int64Counter
	CommandErrors   metric.Int64Counter

	EventsAppended    metric.Int64Counter
	EventStoreLatency metric.Float64Histogram

	ProjectionLag    metric.Float64Gauge
	ProjectionErrors metric.Int64Counter

	BusPublishLatency metric.Float64Histogram
	BusPublishErrors  metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.CommandDuration, err = meter.Float64Histogram(
		"specsvc.command.duration",
		metric.WithDescription("command execution duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("command.duration: %w", err)
	}
	if m.CommandTotal, err = meter.Int64Counter(
		"specsvc.command.total",
		metric.WithDescription("total commands executed"),
	); err != nil {
		return nil, fmt.Errorf("command.total: %w", err)
	}
	if m.CommandErrors, err = meter.Int64Counter(
		"specsvc.command.errors",
		metric.WithDescription("total command errors"),
	); err != nil {
		return nil, fmt.Errorf("command.errors: %w", err)
	}
	if m.EventsAppended, err = meter.Int64Counter(
		"specsvc.events.appended",
		metric.WithDescription("total events appended to the event store"),
	); err != nil {
		return nil, fmt.Errorf("events.appended: %w", err)
	}
	if m.EventStoreLatency, err = meter.Float64Histogram(
		"specsvc.eventstore.latency",
		metric.WithDescription("event store operation latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("eventstore.latency: %w", err)
	}
	if m.ProjectionLag, err = meter.Float64Gauge(
		"specsvc.projection.lag",
		metric.WithDescription("seconds the projector is behind the event log"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("projection.lag: %w", err)
	}
	if m.ProjectionErrors, err = meter.Int64Counter(
		"specsvc.projection.errors",
		metric.WithDescription("projection apply errors, by event type"),
	); err != nil {
		return nil, fmt.Errorf("projection.errors: %w", err)
	}
	if m.BusPublishLatency, err = meter.Float64Histogram(
		"specsvc.bus.publish.latency",
		metric.WithDescription("wake-up bus publish latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("bus.publish.latency: %w", err)
	}
	if m.BusPublishErrors, err = meter.Int64Counter(
		"specsvc.bus.publish.errors",
		metric.WithDescription("wake-up bus publish failures"),
	); err != nil {
		return nil, fmt.Errorf("bus.publish.errors: %w", err)
	}

	return m, nil
}

// RecordCommand records one command dispatch.
func (m *Metrics) RecordCommand(ctx context.Context, commandType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("command_type", commandType))
	m.CommandDuration.Record(ctx, duration.Seconds(), attrs)
	m.CommandTotal.Add(ctx, 1, attrs)
	if err != nil {
		m.CommandErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command_type", commandType),
			attribute.String("error_type", fmt.Sprintf("%T", err)),
		))
	}
}

// RecordEventStoreAppend records an AppendEvents call.
func (m *Metrics) RecordEventStoreAppend(ctx context.Context, duration time.Duration, eventCount int) {
	m.EventStoreLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("operation", "append")))
	m.EventsAppended.Add(ctx, int64(eventCount))
}

// RecordProjectionLag records how far behind the projector is.
func (m *Metrics) RecordProjectionLag(ctx context.Context, lagSeconds float64) {
	m.ProjectionLag.Record(ctx, lagSeconds)
}

// RecordProjectionError records one failed apply, by event type.
func (m *Metrics) RecordProjectionError(ctx context.Context, eventType string) {
	m.ProjectionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordBusPublish records a wake-up notifier publish attempt.
func (m *Metrics) RecordBusPublish(ctx context.Context, duration time.Duration, err error) {
	m.BusPublishLatency.Record(ctx, duration.Seconds())
	if err != nil {
		m.BusPublishErrors.Add(ctx, 1)
	}
}
