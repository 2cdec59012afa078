package rpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/navicore/specsvc/internal/app"
	"github.com/navicore/specsvc/internal/checkpoint"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/processor"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/storage"
)

func newTestServer(t *testing.T) (*server, *eventstore.Store, *projection.Store, *checkpoint.Store) {
	t.Helper()
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events, err := eventstore.New(db)
	require.NoError(t, err)
	projections, err := projection.New(db, false)
	require.NoError(t, err)
	checkpoints, err := checkpoint.New(db)
	require.NoError(t, err)

	svc := app.New(events, projections)
	return &server{svc: svc}, events, projections, checkpoints
}

func TestCreateSpecOverRPC(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	resp, err := s.CreateSpec(context.Background(), &CreateSpecRequest{Name: "auth", Content: "a: 1"})
	require.NoError(t, err)
	require.Equal(t, int32(1), resp.Version)
	require.NotEmpty(t, resp.ID)
}

func TestGetSpecNotFoundMapsToNotFoundStatus(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	_, err := s.GetSpec(context.Background(), &GetSpecRequest{ID: "00000000-0000-0000-0000-000000000000"})
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestPublishWithStaleVersionMapsToAborted(t *testing.T) {
	s, events, projections, checkpoints := newTestServer(t)
	created, err := s.CreateSpec(context.Background(), &CreateSpecRequest{Name: "auth", Content: "a: 1"})
	require.NoError(t, err)

	proc := processor.New(events, projections, checkpoints)
	require.NoError(t, proc.RebuildProjections(context.Background()))

	_, err = s.UpdateSpec(context.Background(), &UpdateSpecRequest{ID: created.ID, Content: "a: 2"})
	require.NoError(t, err)

	stale := int32(1)
	_, err = s.PublishSpec(context.Background(), &PublishSpecRequest{ID: created.ID, Version: &stale})
	require.Error(t, err)
	require.Equal(t, codes.Aborted, status.Code(err))
}

func TestGetSpecHistoryReturnsEventsInOrder(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	created, err := s.CreateSpec(context.Background(), &CreateSpecRequest{Name: "auth", Content: "a: 1"})
	require.NoError(t, err)

	one := int32(1)
	_, err = s.PublishSpec(context.Background(), &PublishSpecRequest{ID: created.ID, Version: &one})
	require.NoError(t, err)

	history, err := s.GetSpecHistory(context.Background(), &GetSpecHistoryRequest{ID: created.ID})
	require.NoError(t, err)
	require.Len(t, history.Events, 2)
	require.Equal(t, "created", history.Events[0].EventType)
	require.NotNil(t, history.Events[0].Created)
	require.Equal(t, "state_changed", history.Events[1].EventType)
	require.NotNil(t, history.Events[1].StateChanged)
}
