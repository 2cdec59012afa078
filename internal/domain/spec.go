package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/clock"
)

// Spec is the write-side aggregate: a plain value reconstructed from its
// event stream on every command, never held resident between commands.
type Spec struct {
	ID          uuid.UUID
	Name        Name
	Content     Content
	Description *string
	Version     Version
	State       State
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	UpdatedBy   string

	loaded bool // guards against Apply(Created) on a non-empty aggregate
}

// Create validates the command and returns the sole event a brand-new
// aggregate emits. It never mutates or inspects existing state: duplicate
// name detection happens one layer up, before Create is even called (see
// internal/app's Service.CreateSpec, which looks the normalized name up in
// the projection store first).
func Create(cmd CreateSpecCommand) ([]Event, error) {
	name, err := NewName(cmd.Name)
	if err != nil {
		return nil, err
	}
	content, err := NewContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	return []Event{
		Created{
			Name:        name,
			Content:     content,
			Description: cmd.Description,
			CreatedBy:   cmd.Ctx.PrincipalID,
			CreatedAt:   now,
		},
	}, nil
}

// FromEvents replays a stream into a Spec. The first event must be Created;
// any other ordering is a program error (EventStoreError), since the store
// guarantees Created is always sequence 1.
func FromEvents(id uuid.UUID, events []Event) (*Spec, error) {
	if len(events) == 0 {
		return nil, NewEventStoreError(fmt.Sprintf("no events for aggregate %s", id), nil)
	}
	created, ok := events[0].(Created)
	if !ok {
		return nil, NewEventStoreError(fmt.Sprintf("first event for aggregate %s is not Created", id), nil)
	}

	s := &Spec{
		ID:          id,
		Name:        created.Name,
		Content:     created.Content,
		Description: created.Description,
		Version:     InitialVersion(),
		State:       StateDraft,
		CreatedAt:   created.CreatedAt,
		CreatedBy:   created.CreatedBy,
		UpdatedAt:   created.CreatedAt,
		UpdatedBy:   created.CreatedBy,
		loaded:      true,
	}

	for _, evt := range events[1:] {
		if err := s.apply(evt); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Spec) apply(evt Event) error {
	switch e := evt.(type) {
	case Created:
		if s.loaded {
			return NewEventStoreError("Created applied to a non-empty aggregate", nil)
		}
		return nil
	case Updated:
		s.Content = e.Content
		s.Description = e.Description
		s.Version = e.Version
		s.UpdatedBy = e.UpdatedBy
		s.UpdatedAt = e.UpdatedAt
		return nil
	case StateChanged:
		s.State = e.To
		s.UpdatedAt = e.ChangedAt
		return nil
	default:
		return NewEventStoreError(fmt.Sprintf("unknown event type %T", evt), nil)
	}
}

// Update validates new content and, if the aggregate is not Deleted, emits
// an Updated event with version = current+1.
func (s *Spec) Update(cmd UpdateSpecCommand) ([]Event, error) {
	if s.State == StateDeleted {
		return nil, &InvalidStateForOperationError{State: s.State}
	}
	content, err := NewContent(cmd.Content)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	return []Event{
		Updated{
			Content:     content,
			Description: cmd.Description,
			Version:     s.Version.Increment(),
			UpdatedBy:   cmd.Ctx.PrincipalID,
			UpdatedAt:   now,
		},
	}, nil
}

// Publish requires Draft; if the command supplies a version it must equal
// the aggregate's current version.
func (s *Spec) Publish(cmd PublishSpecCommand) ([]Event, error) {
	if s.State != StateDraft {
		return nil, &InvalidStateTransitionError{From: s.State, To: StatePublished}
	}
	if cmd.Version != nil && *cmd.Version != s.Version.Int() {
		return nil, &VersionMismatchError{Expected: s.Version.Int(), Actual: *cmd.Version}
	}
	now := clock.Now()
	return []Event{
		StateChanged{
			Version:   s.Version,
			From:      StateDraft,
			To:        StatePublished,
			Reason:    nil,
			Actor:     cmd.Ctx.PrincipalID,
			ChangedAt: now,
		},
	}, nil
}

// Deprecate requires Published.
func (s *Spec) Deprecate(cmd DeprecateSpecCommand) ([]Event, error) {
	if s.State != StatePublished {
		return nil, &InvalidStateTransitionError{From: s.State, To: StateDeprecated}
	}
	now := clock.Now()
	reason := cmd.Reason
	return []Event{
		StateChanged{
			Version:   s.Version,
			From:      StatePublished,
			To:        StateDeprecated,
			Reason:    &reason,
			Actor:     cmd.Ctx.PrincipalID,
			ChangedAt: now,
		},
	}, nil
}

// Delete requires any state other than Deleted.
func (s *Spec) Delete(cmd DeleteSpecCommand) ([]Event, error) {
	if s.State == StateDeleted {
		return nil, &InvalidStateForOperationError{State: s.State}
	}
	now := clock.Now()
	return []Event{
		StateChanged{
			Version:   s.Version,
			From:      s.State,
			To:        StateDeleted,
			Reason:    nil,
			Actor:     cmd.Ctx.PrincipalID,
			ChangedAt: now,
		},
	}, nil
}
