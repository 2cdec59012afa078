package processor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/navicore/specsvc/internal/checkpoint"
	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/storage"
)

func newRapidHarness(t require.TestingT) (*eventstore.Store, *projection.Store, *checkpoint.Store, func()) {
	db, err := storage.Open("")
	require.NoError(t, err)
	events, err := eventstore.New(db)
	require.NoError(t, err)
	projections, err := projection.New(db, true)
	require.NoError(t, err)
	checkpoints, err := checkpoint.New(db)
	require.NoError(t, err)
	return events, projections, checkpoints, func() { db.Close() }
}

func rapidCreateAggregate(t require.TestingT, events *eventstore.Store, name string) uuid.UUID {
	id := uuid.New()
	evts, err := domain.Create(domain.CreateSpecCommand{Name: name, Content: "a: 1", Ctx: domain.CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	_, err = events.AppendEvents(context.Background(), id, evts, domain.EventMetadata{})
	require.NoError(t, err)
	return id
}

// rapidStep loads the aggregate's current state and appends one more legal
// transition for it: Update always applies; Publish/Deprecate only when the
// current state allows them.
func rapidStep(t *rapid.T, events *eventstore.Store, id uuid.UUID) {
	ctx := context.Background()
	envs, err := events.GetEvents(ctx, id, 0)
	require.NoError(t, err)
	domainEvents := make([]domain.Event, len(envs))
	for i, e := range envs {
		domainEvents[i] = e.Event
	}
	spec, err := domain.FromEvents(id, domainEvents)
	require.NoError(t, err)
	if spec.State == domain.StateDeleted {
		return
	}

	choices := []string{"update"}
	switch spec.State {
	case domain.StateDraft:
		choices = append(choices, "publish")
	case domain.StatePublished:
		choices = append(choices, "deprecate")
	}
	choice := rapid.SampledFrom(choices).Draw(t, "step")

	var out []domain.Event
	switch choice {
	case "update":
		out, err = spec.Update(domain.UpdateSpecCommand{Content: "a: 2", Ctx: domain.CommandContext{PrincipalID: "u1"}})
	case "publish":
		out, err = spec.Publish(domain.PublishSpecCommand{Ctx: domain.CommandContext{PrincipalID: "u1"}})
	case "deprecate":
		out, err = spec.Deprecate(domain.DeprecateSpecCommand{Reason: "r", Ctx: domain.CommandContext{PrincipalID: "u1"}})
	}
	require.NoError(t, err)
	_, err = events.AppendEvents(ctx, id, out, domain.EventMetadata{})
	require.NoError(t, err)
}

// TestRebuildConvergesWithContinuousForwardApplication checks invariant 5:
// a rebuild's projection rows equal what continuous forward application of
// processBatch already produced for the same event stream.
func TestRebuildConvergesWithContinuousForwardApplication(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events, projections, checkpoints, closeDB := newRapidHarness(t)
		defer closeDB()
		ctx := context.Background()

		aggCount := rapid.IntRange(1, 3).Draw(t, "aggCount")
		ids := make([]uuid.UUID, aggCount)
		for i := range ids {
			ids[i] = rapidCreateAggregate(t, events, "svc-"+string(rune('a'+i)))
		}

		stepCount := rapid.IntRange(0, 5).Draw(t, "stepCount")
		for i := 0; i < stepCount; i++ {
			idx := rapid.IntRange(0, aggCount-1).Draw(t, "idx")
			rapidStep(t, events, ids[idx])
		}

		p := New(events, projections, checkpoints)
		cursor := int64(0)
		for {
			next, n, err := p.processBatch(ctx, cursor)
			require.NoError(t, err)
			if n == 0 {
				break
			}
			cursor = next
		}

		before := make(map[uuid.UUID]projection.Spec)
		for _, id := range ids {
			got, err := projections.GetByID(ctx, id)
			require.NoError(t, err)
			before[id] = got
		}

		require.NoError(t, p.RebuildProjections(ctx))

		for _, id := range ids {
			got, err := projections.GetByID(ctx, id)
			require.NoError(t, err)
			require.Equal(t, before[id], got)
		}
	})
}
