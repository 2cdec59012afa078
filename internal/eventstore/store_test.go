package eventstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := New(db)
	require.NoError(t, err)
	return store
}

func createdEvent(name string) domain.Event {
	n, _ := domain.NewName(name)
	c, _ := domain.NewContent("a: 1")
	return domain.Created{Name: n, Content: c, CreatedBy: "u1"}
}

func TestAppendAndGetEventsSequenceIsDense(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	aggID := uuid.New()

	envs, err := store.AppendEvents(ctx, aggID, []domain.Event{createdEvent("auth")}, domain.EventMetadata{})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, int64(1), envs[0].SequenceNumber)

	content, _ := domain.NewContent("a: 2")
	updated := domain.Updated{Content: content, Version: domain.NewVersion(2), UpdatedBy: "u1"}
	envs2, err := store.AppendEvents(ctx, aggID, []domain.Event{updated}, domain.EventMetadata{})
	require.NoError(t, err)
	require.Len(t, envs2, 1)
	assert.Equal(t, int64(2), envs2[0].SequenceNumber)

	all, err := store.GetEvents(ctx, aggID, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].SequenceNumber)
	assert.Equal(t, int64(2), all[1].SequenceNumber)
}

func TestGetAllEventsGlobalOrderAcrossAggregates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := uuid.New()
	b := uuid.New()

	_, err := store.AppendEvents(ctx, a, []domain.Event{createdEvent("a-spec")}, domain.EventMetadata{})
	require.NoError(t, err)
	_, err = store.AppendEvents(ctx, b, []domain.Event{createdEvent("b-spec")}, domain.EventMetadata{})
	require.NoError(t, err)

	all, err := store.GetAllEvents(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0].AggregateID)
	assert.Equal(t, b, all[1].AggregateID)
	assert.True(t, all[1].GlobalCursor > all[0].GlobalCursor)
}

func TestAppendEventsRoundTripsIdentity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	aggID := uuid.New()

	original := createdEvent("roundtrip")
	envs, err := store.AppendEvents(ctx, aggID, []domain.Event{original}, domain.EventMetadata{})
	require.NoError(t, err)

	readBack, err := store.GetEvents(ctx, aggID, 0)
	require.NoError(t, err)
	require.Len(t, readBack, 1)

	wantCreated := original.(domain.Created)
	gotCreated := readBack[0].Event.(domain.Created)
	assert.Equal(t, wantCreated.Name.String(), gotCreated.Name.String())
	assert.Equal(t, wantCreated.Content.String(), gotCreated.Content.String())
	assert.Equal(t, wantCreated.CreatedBy, gotCreated.CreatedBy)
	assert.Equal(t, envs[0].EventID, readBack[0].EventID)
}
