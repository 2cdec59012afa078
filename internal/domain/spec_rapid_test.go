package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func createdEventsFor(t require.TestingT, name, content string) []Event {
	events, err := Create(CreateSpecCommand{Name: name, Content: content, Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	return events
}

// TestReplayIsDeterministicRegardlessOfChunking checks invariant 1: folding
// an aggregate's events from empty yields the same state whether FromEvents
// sees the whole stream at once or in an arbitrarily split prefix/suffix.
func TestReplayIsDeterministicRegardlessOfChunking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := uuid.New()
		updateCount := rapid.IntRange(0, 8).Draw(t, "updateCount")

		events := createdEventsFor(t, "auth", "a: 1")
		for i := 0; i < updateCount; i++ {
			spec, err := FromEvents(id, events)
			require.NoError(t, err)
			upd, err := spec.Update(UpdateSpecCommand{Content: "a: 2", Ctx: CommandContext{PrincipalID: "u1"}})
			require.NoError(t, err)
			events = append(events, upd...)
		}

		whole, err := FromEvents(id, events)
		require.NoError(t, err)

		split := rapid.IntRange(1, len(events)).Draw(t, "splitPoint")
		chunked, err := FromEvents(id, events[:split])
		require.NoError(t, err)
		for _, evt := range events[split:] {
			require.NoError(t, chunked.apply(evt))
		}

		require.Equal(t, whole.Version.Int(), chunked.Version.Int())
		require.Equal(t, whole.State, chunked.State)
		require.Equal(t, whole.Content.String(), chunked.Content.String())
	})
}

// TestVersionIsOnePlusUpdateCount checks invariant 3: version after k
// Updates equals 1 + k.
func TestVersionIsOnePlusUpdateCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := uuid.New()
		k := rapid.IntRange(0, 20).Draw(t, "k")

		events := createdEventsFor(t, "auth", "a: 1")
		for i := 0; i < k; i++ {
			spec, err := FromEvents(id, events)
			require.NoError(t, err)
			upd, err := spec.Update(UpdateSpecCommand{Content: "a: 2", Ctx: CommandContext{PrincipalID: "u1"}})
			require.NoError(t, err)
			events = append(events, upd...)
		}

		spec, err := FromEvents(id, events)
		require.NoError(t, err)
		require.Equal(t, 1+k, spec.Version.Int())
	})
}

// TestIllegalTransitionsNeverMutateState checks invariant 4: an illegal
// state-machine edge returns InvalidStateTransition and leaves the
// in-memory aggregate untouched, since Publish/Deprecate/Delete return
// events for the caller to append rather than mutating the receiver.
func TestIllegalTransitionsNeverMutateState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := uuid.New()
		events := createdEventsFor(t, "auth", "a: 1")
		spec, err := FromEvents(id, events)
		require.NoError(t, err)

		before := spec.State
		_, err = spec.Deprecate(DeprecateSpecCommand{Reason: "x", Ctx: CommandContext{PrincipalID: "u1"}})
		require.ErrorIs(t, err, ErrInvalidStateTransition)
		require.Equal(t, before, spec.State)
	})
}
