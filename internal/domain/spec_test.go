package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreate(t *testing.T, name, content string) []Event {
	t.Helper()
	events, err := Create(CreateSpecCommand{
		Name:    name,
		Content: content,
		Ctx:     CommandContext{PrincipalID: "u1"},
	})
	require.NoError(t, err)
	return events
}

func TestCreatePublishDeprecate(t *testing.T) {
	events := mustCreate(t, "auth", "a: 1")
	spec, err := FromEvents(uuid.New(), events)
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Version.Int())
	assert.Equal(t, StateDraft, spec.State)

	v := 1
	pubEvents, err := spec.Publish(PublishSpecCommand{Version: &v, Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	for _, e := range pubEvents {
		require.NoError(t, spec.apply(e))
	}
	assert.Equal(t, StatePublished, spec.State)

	depEvents, err := spec.Deprecate(DeprecateSpecCommand{Reason: "obsolete", Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	for _, e := range depEvents {
		require.NoError(t, spec.apply(e))
	}
	assert.Equal(t, StateDeprecated, spec.State)

	all := append(append([]Event{}, events...), pubEvents...)
	all = append(all, depEvents...)
	assert.Len(t, all, 3)
}

func TestUpdateIncrementsVersion(t *testing.T) {
	events := mustCreate(t, "auth", "a: 1")
	spec, err := FromEvents(uuid.New(), events)
	require.NoError(t, err)

	updEvents, err := spec.Update(UpdateSpecCommand{Content: "a: 2", Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	for _, e := range updEvents {
		require.NoError(t, spec.apply(e))
	}
	assert.Equal(t, 2, spec.Version.Int())

	updated := updEvents[0].(Updated)
	assert.Equal(t, "a: 2", updated.Content.String())
}

func TestInvalidTransitionDeprecateWithoutPublish(t *testing.T) {
	events := mustCreate(t, "auth", "a: 1")
	spec, err := FromEvents(uuid.New(), events)
	require.NoError(t, err)

	_, err = spec.Deprecate(DeprecateSpecCommand{Reason: "x", Ctx: CommandContext{PrincipalID: "u1"}})
	require.Error(t, err)
	var transErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, StateDraft, transErr.From)
	assert.Equal(t, StateDeprecated, transErr.To)
	assert.Equal(t, StateDraft, spec.State, "state must be unchanged on rejected transition")
}

func TestVersionMismatchOnPublish(t *testing.T) {
	events := mustCreate(t, "auth", "a: 1")
	spec, err := FromEvents(uuid.New(), events)
	require.NoError(t, err)

	updEvents, err := spec.Update(UpdateSpecCommand{Content: "a: 2", Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
	for _, e := range updEvents {
		require.NoError(t, spec.apply(e))
	}
	assert.Equal(t, 2, spec.Version.Int())

	stale := 1
	_, err = spec.Publish(PublishSpecCommand{Version: &stale, Ctx: CommandContext{PrincipalID: "u1"}})
	require.Error(t, err)
	var mismatch *VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Actual)

	current := 2
	_, err = spec.Publish(PublishSpecCommand{Version: &current, Ctx: CommandContext{PrincipalID: "u1"}})
	require.NoError(t, err)
}

func TestRejectsBadYaml(t *testing.T) {
	_, err := Create(CreateSpecCommand{
		Name:    "auth",
		Content: "key: : :",
		Ctx:     CommandContext{PrincipalID: "u1"},
	})
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, InvalidYaml, valErr.Kind)
}

func TestNameValidationBoundaries(t *testing.T) {
	longName := make([]byte, 256)
	for i := range longName {
		longName[i] = 'a'
	}

	_, err := NewName("")
	require.Error(t, err)

	_, err = NewName(string(longName))
	require.Error(t, err)

	_, err = NewName("valid.name-1_2")
	require.NoError(t, err)

	_, err = NewName("invalid name!")
	require.Error(t, err)
}

func TestContentValidationBoundaries(t *testing.T) {
	_, err := NewContent("")
	require.Error(t, err)

	tooLarge := make([]byte, 2049)
	_, err = NewContent(string(tooLarge))
	require.Error(t, err)

	_, err = NewContent("a: 1")
	require.NoError(t, err)
}
