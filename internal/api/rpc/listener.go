package rpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/navicore/specsvc/internal/app"
)

// Listener is a runner.Service wrapping a grpc.Server bound to Addr.
type Listener struct {
	Addr   string
	Logger *slog.Logger

	server *grpc.Server
}

// NewListener builds an RPC Listener backed by svc.
func NewListener(addr string, svc *app.Service, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	gs.RegisterService(&serviceDesc, &server{svc: svc})
	return &Listener{Addr: addr, Logger: logger, server: gs}
}

func (l *Listener) Name() string { return "rpc-listener" }

func (l *Listener) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := l.server.Serve(lis); err != nil {
			l.Logger.Error("rpc server stopped", "error", err)
		}
	}()
	return nil
}

func (l *Listener) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		l.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		l.server.Stop()
		return ctx.Err()
	}
}
