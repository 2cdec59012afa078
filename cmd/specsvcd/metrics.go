package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/navicore/specsvc/internal/telemetry"
)

// metricsListener is a runner.Service exposing the Prometheus scrape
// endpoint on its own small HTTP server, separate from the REST API.
type metricsListener struct {
	logger *slog.Logger
	server *http.Server
}

func newMetricsListener(logger *slog.Logger) *metricsListener {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	return &metricsListener{
		logger: logger,
		server: &http.Server{Addr: "0.0.0.0:9090", Handler: mux},
	}
}

func (m *metricsListener) Name() string { return "metrics-listener" }

func (m *metricsListener) Start(ctx context.Context) error {
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}

func (m *metricsListener) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
