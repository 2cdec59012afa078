// Package app is the command-orchestration layer between the API adapters
// and the core: it loads aggregates, runs commands through the middleware
// chain, appends the resulting events, and serves reads from the
// projection store with an event-store replay fallback when a projection
// row has not caught up yet.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/bus"
	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/middleware"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/telemetry"
)

// Service is the single entry point command and query handlers (REST, RPC)
// call into.
type Service struct {
	events      *eventstore.Store
	projections *projection.Store
	notifier    bus.Notifier
	metrics     *telemetry.Metrics
	logger      *slog.Logger
	chain       middleware.Middleware
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier wires the best-effort wake-up bus. Omit for a Noop notifier.
func WithNotifier(n bus.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics wires OpenTelemetry instruments. Omit to skip metric recording.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service around already-migrated stores.
func New(events *eventstore.Store, projections *projection.Store, opts ...Option) *Service {
	s := &Service{
		events:      events,
		projections: projections,
		notifier:    bus.Noop{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chain = middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Tracing(""),
		middleware.Logging(s.logger),
	)
	return s
}

func (s *Service) dispatch(ctx context.Context, env middleware.Envelope, fn middleware.Next) ([]domain.Event, error) {
	start := time.Now()
	events, err := s.chain(env, fn)(ctx)
	if s.metrics != nil {
		s.metrics.RecordCommand(ctx, env.CommandType, time.Since(start), err)
	}
	return events, err
}

// CreateSpec rejects a duplicate name before issuing Create, then appends
// the resulting Created event. The duplicate check compares the NFC
// normalization of the name, the same form the projection's unique index
// is built on, so names that only differ by normalization form collide
// here instead of racing each other down to a low-level constraint error.
func (s *Service) CreateSpec(ctx context.Context, cmd domain.CreateSpecCommand) (domain.EventEnvelope, error) {
	if name, nameErr := domain.NewName(cmd.Name); nameErr == nil {
		if _, err := s.projections.GetByNormalizedName(ctx, name.Normalized()); err == nil {
			return domain.EventEnvelope{}, domain.ErrDuplicateSpecName
		} else if err != domain.ErrSpecNotFound {
			return domain.EventEnvelope{}, err
		}
	}

	id := uuid.New()
	env := middleware.Envelope{
		CommandType:   "CreateSpec",
		CommandID:     uuid.NewString(),
		PrincipalID:   cmd.Ctx.PrincipalID,
		CorrelationID: cmd.Ctx.CorrelationID,
	}
	events, err := s.dispatch(ctx, env, func(ctx context.Context) ([]domain.Event, error) {
		return domain.Create(cmd)
	})
	if err != nil {
		return domain.EventEnvelope{}, err
	}
	envelopes, err := s.events.AppendEvents(ctx, id, events, eventMetadata(cmd.Ctx))
	if err != nil {
		return domain.EventEnvelope{}, err
	}
	s.wake(ctx)
	return envelopes[0], nil
}

// UpdateSpec loads the aggregate, runs Update, and appends the result.
func (s *Service) UpdateSpec(ctx context.Context, id uuid.UUID, cmd domain.UpdateSpecCommand) (domain.EventEnvelope, error) {
	return s.dispatchOnAggregate(ctx, id, "UpdateSpec", cmd.Ctx, func(spec *domain.Spec) ([]domain.Event, error) {
		return spec.Update(cmd)
	})
}

// PublishSpec loads the aggregate and runs Publish.
func (s *Service) PublishSpec(ctx context.Context, id uuid.UUID, cmd domain.PublishSpecCommand) (domain.EventEnvelope, error) {
	return s.dispatchOnAggregate(ctx, id, "PublishSpec", cmd.Ctx, func(spec *domain.Spec) ([]domain.Event, error) {
		return spec.Publish(cmd)
	})
}

// DeprecateSpec loads the aggregate and runs Deprecate.
func (s *Service) DeprecateSpec(ctx context.Context, id uuid.UUID, cmd domain.DeprecateSpecCommand) (domain.EventEnvelope, error) {
	return s.dispatchOnAggregate(ctx, id, "DeprecateSpec", cmd.Ctx, func(spec *domain.Spec) ([]domain.Event, error) {
		return spec.Deprecate(cmd)
	})
}

// DeleteSpec loads the aggregate and runs Delete.
func (s *Service) DeleteSpec(ctx context.Context, id uuid.UUID, cmd domain.DeleteSpecCommand) (domain.EventEnvelope, error) {
	return s.dispatchOnAggregate(ctx, id, "DeleteSpec", cmd.Ctx, func(spec *domain.Spec) ([]domain.Event, error) {
		return spec.Delete(cmd)
	})
}

func (s *Service) dispatchOnAggregate(
	ctx context.Context,
	id uuid.UUID,
	commandType string,
	cmdCtx domain.CommandContext,
	run func(*domain.Spec) ([]domain.Event, error),
) (domain.EventEnvelope, error) {
	spec, err := s.loadAggregate(ctx, id)
	if err != nil {
		return domain.EventEnvelope{}, err
	}

	env := middleware.Envelope{
		CommandType:   commandType,
		CommandID:     uuid.NewString(),
		PrincipalID:   cmdCtx.PrincipalID,
		CorrelationID: cmdCtx.CorrelationID,
	}
	events, err := s.dispatch(ctx, env, func(ctx context.Context) ([]domain.Event, error) {
		return run(spec)
	})
	if err != nil {
		return domain.EventEnvelope{}, err
	}
	envelopes, err := s.events.AppendEvents(ctx, id, events, eventMetadata(cmdCtx))
	if err != nil {
		return domain.EventEnvelope{}, err
	}
	s.wake(ctx)
	return envelopes[0], nil
}

func (s *Service) loadAggregate(ctx context.Context, id uuid.UUID) (*domain.Spec, error) {
	envelopes, err := s.events.GetEvents(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, domain.ErrSpecNotFound
	}
	events := make([]domain.Event, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}
	return domain.FromEvents(id, events)
}

// GetSpec serves a point read from the projection store, falling back to a
// live event-store replay when the projection has not caught up yet
// (spec.md §9: "standardize by making point reads fall back to event-store
// replay when the projection is absent").
func (s *Service) GetSpec(ctx context.Context, id uuid.UUID) (projection.Spec, error) {
	spec, err := s.projections.GetByID(ctx, id)
	if err == nil {
		return spec, nil
	}
	if err != domain.ErrSpecNotFound {
		return projection.Spec{}, err
	}

	aggregate, loadErr := s.loadAggregate(ctx, id)
	if loadErr != nil {
		return projection.Spec{}, err // preserve the original ErrSpecNotFound
	}
	return projectionFromAggregate(aggregate), nil
}

// ListSpecs delegates to the projection store. A nil state excludes Deleted.
func (s *Service) ListSpecs(ctx context.Context, state *domain.State, limit, offset int) ([]projection.Summary, int, error) {
	return s.projections.ListByState(ctx, state, limit, offset)
}

// GetSpecVersion returns the content/description recorded at a specific
// content-bearing version.
func (s *Service) GetSpecVersion(ctx context.Context, id uuid.UUID, version int) (projection.VersionEntry, error) {
	return s.projections.GetVersion(ctx, id, version)
}

// GetSpecHistory returns the aggregate's full event stream in order, read
// directly from the event store rather than the projection's version
// history, since it must reflect state-change events too.
func (s *Service) GetSpecHistory(ctx context.Context, id uuid.UUID) ([]domain.EventEnvelope, error) {
	envelopes, err := s.events.GetEvents(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, domain.ErrSpecNotFound
	}
	return envelopes, nil
}

func (s *Service) wake(ctx context.Context) {
	if err := s.notifier.Publish(ctx); err != nil {
		s.logger.DebugContext(ctx, "wake-up notify failed, processor will catch up on its own poll", "error", err)
	}
}

func eventMetadata(cmdCtx domain.CommandContext) domain.EventMetadata {
	var correlationID *string
	if cmdCtx.CorrelationID != "" {
		c := cmdCtx.CorrelationID
		correlationID = &c
	}
	return domain.EventMetadata{CorrelationID: correlationID}
}

func projectionFromAggregate(spec *domain.Spec) projection.Spec {
	return projection.Spec{
		ID:          spec.ID,
		Name:        spec.Name.String(),
		Content:     spec.Content.String(),
		Description: spec.Description,
		Version:     spec.Version.Int(),
		State:       spec.State,
		CreatedAt:   spec.CreatedAt,
		CreatedBy:   spec.CreatedBy,
		UpdatedAt:   spec.UpdatedAt,
		UpdatedBy:   spec.UpdatedBy,
	}
}
