package projection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/storage"
)

func newTestStore(t *testing.T, withCache bool) *Store {
	t.Helper()
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := New(db, withCache)
	require.NoError(t, err)
	return store
}

func applyTx(t *testing.T, s *Store, id uuid.UUID, evt domain.Event) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ApplyEventTx(ctx, tx, id, evt))
	require.NoError(t, tx.Commit())
}

func TestApplyCreatedThenGetByIDAndName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, false)
	id := uuid.New()

	name, _ := domain.NewName("auth")
	content, _ := domain.NewContent("a: 1")
	applyTx(t, store, id, domain.Created{Name: name, Content: content, CreatedBy: "u1"})

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, domain.StateDraft, got.State)

	byName, err := store.GetByName(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestApplyUpdatedInsertsHistoryRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, false)
	id := uuid.New()

	name, _ := domain.NewName("auth")
	c1, _ := domain.NewContent("a: 1")
	applyTx(t, store, id, domain.Created{Name: name, Content: c1, CreatedBy: "u1"})

	c2, _ := domain.NewContent("a: 2")
	applyTx(t, store, id, domain.Updated{Content: c2, Version: domain.NewVersion(2), UpdatedBy: "u1"})

	v1, err := store.GetVersion(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "a: 1", v1.Content)

	v2, err := store.GetVersion(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, "a: 2", v2.Content)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestListByStateExcludesDeletedByDefault(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, false)

	live := uuid.New()
	name1, _ := domain.NewName("live-spec")
	c1, _ := domain.NewContent("a: 1")
	applyTx(t, store, live, domain.Created{Name: name1, Content: c1, CreatedBy: "u1"})

	deleted := uuid.New()
	name2, _ := domain.NewName("deleted-spec")
	c2, _ := domain.NewContent("a: 1")
	applyTx(t, store, deleted, domain.Created{Name: name2, Content: c2, CreatedBy: "u1"})
	applyTx(t, store, deleted, domain.StateChanged{From: domain.StateDraft, To: domain.StateDeleted, Actor: "u1"})

	summaries, total, err := store.ListByState(ctx, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, live, summaries[0].ID)
	assert.Equal(t, 1, total)
}

func TestCacheServesAfterWarm(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, true)
	id := uuid.New()

	name, _ := domain.NewName("cached")
	content, _ := domain.NewContent("a: 1")
	applyTx(t, store, id, domain.Created{Name: name, Content: content, CreatedBy: "u1"})
	require.NoError(t, store.WarmCache(ctx, id))

	cached, ok := store.cache.get(id)
	require.True(t, ok)
	assert.Equal(t, "cached", cached.Name)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Name)
}
