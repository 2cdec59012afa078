package processor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/navicore/specsvc/internal/checkpoint"
	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/storage"
)

func newHarness(t *testing.T) (*eventstore.Store, *projection.Store, *checkpoint.Store) {
	t.Helper()
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events, err := eventstore.New(db)
	require.NoError(t, err)
	projections, err := projection.New(db, true)
	require.NoError(t, err)
	checkpoints, err := checkpoint.New(db)
	require.NoError(t, err)
	return events, projections, checkpoints
}

func appendCreated(t *testing.T, events *eventstore.Store, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	evts, err := domain.Create(domain.CreateSpecCommand{
		Name:    name,
		Content: "a: 1",
		Ctx:     domain.CommandContext{PrincipalID: "u1"},
	})
	require.NoError(t, err)
	_, err = events.AppendEvents(context.Background(), id, evts, domain.EventMetadata{})
	require.NoError(t, err)
	return id
}

func TestProcessBatchAppliesEventsAndAdvancesCheckpoint(t *testing.T) {
	ctx := context.Background()
	events, projections, checkpoints := newHarness(t)
	id := appendCreated(t, events, "svc-a")

	p := New(events, projections, checkpoints, WithBatchSize(10))
	nextCursor, batchLen, err := p.processBatch(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, batchLen)
	require.Greater(t, nextCursor, int64(0))

	got, err := projections.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "svc-a", got.Name)

	cp, err := checkpoints.Load(ctx, ProjectorName)
	require.NoError(t, err)
	require.Equal(t, nextCursor, cp.Position)
}

func TestRunStartsAndStopsCleanly(t *testing.T) {
	ctx := context.Background()
	events, projections, checkpoints := newHarness(t)
	appendCreated(t, events, "svc-b")

	p := New(events, projections, checkpoints, WithPollInterval(5*time.Millisecond))
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool {
		_, err := projections.GetByName(ctx, "svc-b")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
}

func TestRebuildProjectionsReplaysFromScratch(t *testing.T) {
	ctx := context.Background()
	events, projections, checkpoints := newHarness(t)
	appendCreated(t, events, "svc-c")
	appendCreated(t, events, "svc-d")

	p := New(events, projections, checkpoints)
	_, _, err := p.processBatch(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, p.RebuildProjections(ctx))

	_, err = projections.GetByName(ctx, "svc-c")
	require.NoError(t, err)
	_, err = projections.GetByName(ctx, "svc-d")
	require.NoError(t, err)

	cp, err := checkpoints.Load(ctx, ProjectorName)
	require.NoError(t, err)
	require.Greater(t, cp.Position, int64(0))
}
