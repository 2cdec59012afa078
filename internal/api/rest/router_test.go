package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navicore/specsvc/internal/app"
	"github.com/navicore/specsvc/internal/checkpoint"
	"github.com/navicore/specsvc/internal/eventstore"
	"github.com/navicore/specsvc/internal/processor"
	"github.com/navicore/specsvc/internal/projection"
	"github.com/navicore/specsvc/internal/storage"
)

type testHandle struct {
	handler     http.Handler
	events      *eventstore.Store
	projections *projection.Store
	checkpoints *checkpoint.Store
}

func newTestHandler(t *testing.T) testHandle {
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
	return testHandle{
		handler:     NewHandler(Config{Service: svc}),
		events:      events,
		projections: projections,
		checkpoints: checkpoints,
	}
}

// syncProjections replays every event into the projection store, standing
// in for the processor's asynchronous catch-up within a single test.
func (th testHandle) syncProjections(t *testing.T) {
	t.Helper()
	proc := processor.New(th.events, th.projections, th.checkpoints)
	require.NoError(t, proc.RebuildProjections(context.Background()))
}

func TestCreateAndGetSpec(t *testing.T) {
	h := newTestHandler(t).handler

	body, _ := json.Marshal(createSpecRequest{Name: "auth", Content: "a: 1"})
	req := httptest.NewRequest(http.MethodPost, "/specs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createSpecResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, 1, created.Version)

	getReq := httptest.NewRequest(http.MethodGet, "/specs/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var spec specResponse
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &spec))
	require.Equal(t, "auth", spec.Name)
	require.Equal(t, "draft", spec.State)
}

func TestGetSpecNotFoundReturns404(t *testing.T) {
	h := newTestHandler(t).handler
	req := httptest.NewRequest(http.MethodGet, "/specs/00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateNameReturns409(t *testing.T) {
	th := newTestHandler(t)
	body, _ := json.Marshal(createSpecRequest{Name: "auth", Content: "a: 1"})

	req1 := httptest.NewRequest(http.MethodPost, "/specs", bytes.NewReader(body))
	rec1 := httptest.NewRecorder()
	th.handler.ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusCreated, rec1.Code)

	// The duplicate-name pre-check reads the projection store, which the
	// processor would normally have caught up by now; do it synchronously.
	th.syncProjections(t)

	req2 := httptest.NewRequest(http.MethodPost, "/specs", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	th.handler.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusConflict, rec2.Code)
}

func TestPublishAndDeprecateReturn200(t *testing.T) {
	th := newTestHandler(t)
	body, _ := json.Marshal(createSpecRequest{Name: "auth", Content: "a: 1"})
	createReq := httptest.NewRequest(http.MethodPost, "/specs", bytes.NewReader(body))
	createRec := httptest.NewRecorder()
	th.handler.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created createSpecResponse
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))

	publishReq := httptest.NewRequest(http.MethodPost, "/specs/"+created.ID+"/publish", nil)
	publishRec := httptest.NewRecorder()
	th.handler.ServeHTTP(publishRec, publishReq)
	require.Equal(t, http.StatusOK, publishRec.Code)

	deprecateReq := httptest.NewRequest(http.MethodPost, "/specs/"+created.ID+"/deprecate", nil)
	deprecateRec := httptest.NewRecorder()
	th.handler.ServeHTTP(deprecateRec, deprecateReq)
	require.Equal(t, http.StatusOK, deprecateRec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t).handler
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
