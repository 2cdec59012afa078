// Package middleware wraps command execution with cross-cutting behavior —
// logging, panic recovery, tracing — the same decorator-chain shape as
// pkg/middleware's CommandMiddleware, adapted to this service's single
// aggregate type instead of a generic multi-aggregate CommandHandler.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/navicore/specsvc/internal/domain"
)

// Envelope carries the metadata middleware needs without depending on any
// one command's concrete type.
type Envelope struct {
	CommandType   string
	CommandID     string
	PrincipalID   string
	CorrelationID string
}

// Next is the remaining handler chain.
type Next func(ctx context.Context) ([]domain.Event, error)

// Middleware wraps Next with before/after (and panic-recovery) behavior.
type Middleware func(env Envelope, next Next) Next

// Chain composes middlewares so the first one listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(env Envelope, next Next) Next {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](env, next)
		}
		return next
	}
}

// Logging logs command execution and timing via slog.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(env Envelope, next Next) Next {
		return func(ctx context.Context) ([]domain.Event, error) {
			start := time.Now()
			logger.InfoContext(ctx, "executing command",
				"command_type", env.CommandType,
				"command_id", env.CommandID,
				"principal_id", env.PrincipalID,
				"correlation_id", env.CorrelationID,
			)

			events, err := next(ctx)
			duration := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "command execution failed",
					"command_type", env.CommandType,
					"command_id", env.CommandID,
					"duration_ms", duration.Milliseconds(),
					"error", err,
				)
				return nil, err
			}
			logger.InfoContext(ctx, "command executed",
				"command_type", env.CommandType,
				"command_id", env.CommandID,
				"events_count", len(events),
				"duration_ms", duration.Milliseconds(),
			)
			return events, nil
		}
	}
}

// Recovery turns a panic inside next into an error instead of crashing the
// process.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(env Envelope, next Next) Next {
		return func(ctx context.Context) (events []domain.Event, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "command handler panicked",
						"command_type", env.CommandType,
						"command_id", env.CommandID,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					events = nil
					err = fmt.Errorf("command handler panicked: %v", r)
				}
			}()
			return next(ctx)
		}
	}
}

// Tracing starts a span per command on the global tracer provider.
func Tracing(tracerName string) Middleware {
	if tracerName == "" {
		tracerName = "github.com/navicore/specsvc"
	}
	tracer := otel.Tracer(tracerName)

	return func(env Envelope, next Next) Next {
		return func(ctx context.Context) ([]domain.Event, error) {
			spanCtx, span := tracer.Start(ctx, "command."+env.CommandType,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("command.id", env.CommandID),
					attribute.String("command.type", env.CommandType),
					attribute.String("command.principal_id", env.PrincipalID),
					attribute.String("command.correlation_id", env.CorrelationID),
				),
			)
			defer span.End()

			events, err := next(spanCtx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(attribute.Int("events.count", len(events)))
			span.SetStatus(codes.Ok, "command executed")
			return events, nil
		}
	}
}
