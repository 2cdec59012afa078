// Package runner sequences this process's long-lived services (in main:
// event processor, REST listener, RPC listener, metrics listener):
// start in registration order, stop in reverse order within a timeout,
// triggered by SIGINT/SIGTERM or an external context cancellation.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Runner manages the lifecycle of a fixed set of services.
type Runner struct {
	services        []Service
	logger          Logger
	shutdownTimeout time.Duration
	startupTimeout  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithShutdownTimeout overrides the default 30s graceful-shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(r *Runner) { r.shutdownTimeout = timeout }
}

// WithStartupTimeout overrides the default 1m per-service startup timeout.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(r *Runner) { r.startupTimeout = timeout }
}

// New constructs a Runner over services, started in the given order.
func New(services []Service, opts ...Option) *Runner {
	r := &Runner{
		services:        services,
		logger:          NewNoopLogger(),
		shutdownTimeout: 30 * time.Second,
		startupTimeout:  time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts every service in order and blocks until ctx is cancelled or a
// SIGINT/SIGTERM arrives, then stops every started service in reverse order.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		WaitForShutdownSignal()
		r.logger.Info("shutdown signal received")
		cancel()
	}()

	r.logger.Info("starting services", "count", len(r.services))
	started := make([]Service, 0, len(r.services))

	for _, service := range r.services {
		r.logger.Info("starting service", "service", service.Name())

		startCtx, startCancel := context.WithTimeout(ctx, r.startupTimeout)
		err := service.Start(startCtx)
		startCancel()

		if err != nil {
			r.logger.Error("failed to start service", "service", service.Name(), "error", err)
			r.stopServices(started)
			return fmt.Errorf("start service %s: %w", service.Name(), err)
		}

		started = append(started, service)
		r.logger.Info("service started", "service", service.Name())
	}

	r.logger.Info("all services started")
	<-ctx.Done()

	r.logger.Info("shutting down services", "timeout", r.shutdownTimeout)
	return r.stopServices(started)
}

func (r *Runner) stopServices(services []Service) error {
	if len(services) == 0 {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(services))

	for i := len(services) - 1; i >= 0; i-- {
		service := services[i]
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()
			r.logger.Info("stopping service", "service", svc.Name())
			if err := svc.Stop(shutdownCtx); err != nil {
				r.logger.Error("error stopping service", "service", svc.Name(), "error", err)
				errCh <- fmt.Errorf("stop %s: %w", svc.Name(), err)
				return
			}
			r.logger.Info("service stopped", "service", svc.Name())
		}(service)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(errCh)
		var errs []error
		for err := range errCh {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("shutdown errors: %v", errs)
		}
		r.logger.Info("all services stopped")
		return nil
	case <-shutdownCtx.Done():
		r.logger.Error("shutdown timeout exceeded", "timeout", r.shutdownTimeout)
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// HealthCheck runs HealthCheck on every service that implements HealthChecker.
func (r *Runner) HealthCheck(ctx context.Context) error {
	for _, service := range r.services {
		if hc, ok := service.(HealthChecker); ok {
			if err := hc.HealthCheck(ctx); err != nil {
				return fmt.Errorf("service %s unhealthy: %w", service.Name(), err)
			}
		}
	}
	return nil
}
