// Package bus is a best-effort wake-up channel for the event processor: a
// writer that just appended events publishes a one-line nudge so the
// processor can poll immediately instead of waiting out pollInterval. It is
// never a source of durability — if NATS is unreachable the processor still
// converges on its own, just slower (SPEC_FULL.md's wake-up notifier).
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
)

const wakeSubject = "specs.events.appended"

// Notifier is implemented by anything that wants to be nudged: the
// processor registers a handler, writers call Publish.
type Notifier interface {
	Publish(ctx context.Context) error
	Subscribe(handler func()) (Subscription, error)
	Close() error
}

// Subscription is returned by Subscribe and can be torn down independently
// of the bus itself.
type Subscription interface {
	Unsubscribe() error
}

// Bus is a core NATS pub/sub Notifier guarded by a circuit breaker: once
// publishes start failing, the breaker trips and callers stop paying the
// connection-retry cost on every single event append.
type Bus struct {
	nc      *nats.Conn
	breaker *gobreaker.CircuitBreaker
}

// Connect dials url (e.g. "nats://127.0.0.1:4222") and wraps the connection
// in a circuit breaker. A dead NATS server yields a non-nil error here so
// the caller can decide whether a bus is optional for its deployment.
func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(5), nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Bus{
		nc:      nc,
		breaker: newBreaker(),
	}, nil
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "specsvc-bus-publish",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Publish sends a best-effort wake-up message. Errors are expected and
// recoverable: callers should log and move on, never treat this as a
// durability failure.
func (b *Bus) Publish(ctx context.Context) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.nc.Publish(wakeSubject, []byte("wake"))
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("wake-up bus circuit open: %w", err)
	}
	return err
}

// Subscribe registers handler to run whenever a wake-up message arrives.
func (b *Bus) Subscribe(handler func()) (Subscription, error) {
	sub, err := b.nc.Subscribe(wakeSubject, func(*nats.Msg) { handler() })
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &natsSubscription{sub: sub}, nil
}

// Close closes the underlying NATS connection without draining it.
func (b *Bus) Close() error {
	b.nc.Close()
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// Noop is a Notifier that does nothing: app.Service's default when no
// notifier is wired, and main's fallback when the embedded NATS server cannot
// be started or reached, so callers never need a nil check.
type Noop struct{}

func (Noop) Publish(context.Context) error           { return nil }
func (Noop) Subscribe(func()) (Subscription, error)  { return noopSubscription{}, nil }
func (Noop) Close() error                            { return nil }

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }
