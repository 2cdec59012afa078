package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is the spec lifecycle state machine's tag.
type State string

const (
	StateDraft      State = "draft"
	StatePublished  State = "published"
	StateDeprecated State = "deprecated"
	StateDeleted    State = "deleted"
)

// EventType names the wire discriminator for each event variant.
type EventType string

const (
	EventTypeCreated      EventType = "created"
	EventTypeUpdated      EventType = "updated"
	EventTypeStateChanged EventType = "state_changed"
)

// Event is implemented by each of the three event variants. EventType names
// the wire discriminator; Spec's replay fold (Spec.apply) switches on the
// concrete variant.
type Event interface {
	EventType() EventType
}

// Created is emitted once, as sequence 1, by every aggregate.
type Created struct {
	Name        Name
	Content     Content
	Description *string
	CreatedBy   string
	CreatedAt   time.Time
}

func (Created) EventType() EventType { return EventTypeCreated }

// Updated carries a new content-bearing version.
type Updated struct {
	Content     Content
	Description *string
	Version     Version
	UpdatedBy   string
	UpdatedAt   time.Time
}

func (Updated) EventType() EventType { return EventTypeUpdated }

// StateChanged records a lifecycle transition. It never changes Version.
type StateChanged struct {
	Version   Version
	From      State
	To        State
	Reason    *string
	Actor     string
	ChangedAt time.Time
}

func (StateChanged) EventType() EventType { return EventTypeStateChanged }

// EventMetadata travels alongside every envelope but is never interpreted by
// the aggregate or the projections.
type EventMetadata struct {
	CorrelationID *string
	CausationID   *string
	UserAgent     *string
	IPAddress     *string
}

// EventEnvelope wraps an Event with its storage identity.
type EventEnvelope struct {
	EventID        string // ULID, time-sortable
	AggregateID    uuid.UUID
	SequenceNumber int64 // 1-based, dense, per-aggregate
	Event          Event
	Metadata       EventMetadata
	CreatedAt      time.Time
}
