package rest

import (
	"context"
	"log/slog"
	"net/http"
)

// Listener is a runner.Service wrapping an http.Server bound to Addr.
type Listener struct {
	Addr   string
	Logger *slog.Logger

	server *http.Server
}

// NewListener builds a REST Listener serving cfg's handler on addr.
func NewListener(addr string, cfg Config) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		Addr:   addr,
		Logger: logger,
		server: &http.Server{Addr: addr, Handler: NewHandler(cfg)},
	}
}

func (l *Listener) Name() string { return "rest-listener" }

func (l *Listener) Start(ctx context.Context) error {
	go func() {
		if err := l.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Logger.Error("rest server stopped", "error", err)
		}
	}()
	return nil
}

func (l *Listener) Stop(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}
