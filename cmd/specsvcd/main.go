// Command specsvcd runs the spec service: REST and RPC listeners backed by
// a shared SQLite-based event store, with an asynchronous projector
// catching up the read models in the background.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/navicore/specsvc/internal/api/rest"
	"github.com/navicore/specsvc/internal/api/rpc"
	"github.com/navicore/specsvc/internal/app"
	"github.com/navicore/specsvc/internal/bus"
	"github.com/navicore/specsvc/internal/checkpoint"
	"github.com/navicore/specsvc/internal/config"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/logging"
	"github.com/navicore/specsvc/internal/processor"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/runner"
	"github.com/navicore/specsvc/internal/storage"
	"github.com/navicore/specsvc/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogFormat)
	ctx := context.Background()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	events, err := eventstore.New(db)
	if err != nil {
		return fmt.Errorf("init event store: %w", err)
	}
	projections, err := projection.New(db, true)
	if err != nil {
		return fmt.Errorf("init projection store: %w", err)
	}
	checkpoints, err := checkpoint.New(db)
	if err != nil {
		return fmt.Errorf("init checkpoint store: %w", err)
	}

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:     "specsvc",
		ServiceVersion:  "dev",
		Environment:     "development",
		TraceSampleRate: cfg.OTelTracesSampleRate,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer tel.Shutdown(ctx)

	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return fmt.Errorf("init wake-up bus: %w", err)
	}
	defer closeNotifier()

	appSvc := app.New(events, projections,
		app.WithNotifier(notifier),
		app.WithMetrics(tel.Metrics),
		app.WithLogger(logger),
	)

	proc := processor.New(events, projections, checkpoints,
		processor.WithLogger(logger),
		processor.WithNotifier(notifier),
	)

	restListener := rest.NewListener(cfg.RESTAddr, rest.Config{
		Service: appSvc,
		Logger:  logger,
	})
	rpcListener := rpc.NewListener(cfg.GRPCAddr, appSvc, logger)
	metricsListener := newMetricsListener(logger)

	r := runner.New(
		[]runner.Service{proc, restListener, rpcListener, metricsListener},
		runner.WithLogger(runner.NewSlogLogger(logger)),
	)
	return r.Run(ctx)
}

// buildNotifier wires the best-effort wake-up bus: an external NATS_URL is
// dialed directly, otherwise an in-process embedded server backs it so the
// notifier works with zero external configuration.
func buildNotifier(cfg config.Config, logger *slog.Logger) (bus.Notifier, func(), error) {
	if cfg.NATSURL != "" {
		b, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	}

	embedded, err := bus.StartEmbeddedServer()
	if err != nil {
		logger.Warn("embedded nats server unavailable, wake-up notifications disabled", "error", err)
		return bus.Noop{}, func() {}, nil
	}
	b, err := bus.Connect(embedded.URL())
	if err != nil {
		embedded.Shutdown()
		logger.Warn("could not connect to embedded nats server, wake-up notifications disabled", "error", err)
		return bus.Noop{}, func() {}, nil
	}
	return b, func() { b.Close(); embedded.Shutdown() }, nil
}
