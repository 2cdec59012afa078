package eventstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/storage"
)

// TestSequenceNumbersAreDenseAndGapless checks invariant 2: regardless of
// how many events are appended per batch, one aggregate's sequence numbers
// come back as 1,2,3,... with no gaps.
func TestSequenceNumbersAreDenseAndGapless(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		db, err := storage.Open("")
		require.NoError(t, err)
		defer db.Close()
		store, err := New(db)
		require.NoError(t, err)

		ctx := context.Background()
		aggID := uuid.New()

		batchSizes := rapid.SliceOfN(rapid.IntRange(1, 5), 1, 6).Draw(t, "batchSizes")
		total := 0
		for _, n := range batchSizes {
			events := make([]domain.Event, n)
			for i := range events {
				events[i] = createdEvent("x")
			}
			envs, err := store.AppendEvents(ctx, aggID, events, domain.EventMetadata{})
			require.NoError(t, err)
			for i, env := range envs {
				require.Equal(t, int64(total+i+1), env.SequenceNumber)
			}
			total += n
		}

		all, err := store.GetEvents(ctx, aggID, 0)
		require.NoError(t, err)
		require.Len(t, all, total)
		for i, env := range all {
			require.Equal(t, int64(i+1), env.SequenceNumber)
		}
	})
}
