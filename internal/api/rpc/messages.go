package rpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/projection"
)

// CreateSpecRequest is the wire shape of the Create RPC's input.
type CreateSpecRequest struct {
	Name        string  `json:"name"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

// CreateSpecResponse is the wire shape of the Create RPC's output.
type CreateSpecResponse struct {
	ID      string `json:"id"`
	Version int32  `json:"version"`
}

// UpdateSpecRequest is the wire shape of the Update RPC's input.
type UpdateSpecRequest struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

// UpdateSpecResponse is the wire shape of the Update RPC's output.
type UpdateSpecResponse struct {
	Version int32 `json:"version"`
}

// PublishSpecRequest is the wire shape of the Publish RPC's input.
type PublishSpecRequest struct {
	ID      string `json:"id"`
	Version *int32 `json:"version,omitempty"`
}

// PublishSpecResponse is empty on success; present for symmetry with the
// other RPC responses and to leave room for future fields.
type PublishSpecResponse struct{}

// DeprecateSpecRequest is the wire shape of the Deprecate RPC's input.
type DeprecateSpecRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// DeprecateSpecResponse is empty on success.
type DeprecateSpecResponse struct{}

// GetSpecRequest looks a spec up by id.
type GetSpecRequest struct {
	ID string `json:"id"`
}

// SpecMessage is the full current-state read model, as sent over the wire.
type SpecMessage struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Content     string                 `json:"content"`
	Description *string                `json:"description,omitempty"`
	Version     int32                  `json:"version"`
	State       string                 `json:"state"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at"`
	CreatedBy   string                 `json:"created_by"`
	UpdatedAt   *timestamppb.Timestamp `json:"updated_at"`
	UpdatedBy   string                 `json:"updated_by"`
}

func specMessageFrom(s projection.Spec) *SpecMessage {
	return &SpecMessage{
		ID:          s.ID.String(),
		Name:        s.Name,
		Content:     s.Content,
		Description: s.Description,
		Version:     int32(s.Version),
		State:       string(s.State),
		CreatedAt:   timestamppb.New(s.CreatedAt),
		CreatedBy:   s.CreatedBy,
		UpdatedAt:   timestamppb.New(s.UpdatedAt),
		UpdatedBy:   s.UpdatedBy,
	}
}

// ListSpecsRequest accepts an optional state filter and a page size/offset,
// mirroring the REST surface's query parameters.
type ListSpecsRequest struct {
	State  *string `json:"state,omitempty"`
	Limit  int32   `json:"limit"`
	Offset int32   `json:"offset"`
}

// SpecSummaryMessage is the trimmed list-row shape, omitting content.
type SpecSummaryMessage struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Version   int32                  `json:"version"`
	State     string                 `json:"state"`
	UpdatedAt *timestamppb.Timestamp `json:"updated_at"`
}

func specSummaryMessageFrom(s projection.Summary) *SpecSummaryMessage {
	return &SpecSummaryMessage{
		ID:        s.ID.String(),
		Name:      s.Name,
		Version:   int32(s.Version),
		State:     string(s.State),
		UpdatedAt: timestamppb.New(s.UpdatedAt),
	}
}

// ListSpecsResponse is the page of summaries plus its pagination metadata.
type ListSpecsResponse struct {
	Specs  []*SpecSummaryMessage `json:"specs"`
	Total  int32                 `json:"total"`
	Limit  int32                 `json:"limit"`
	Offset int32                 `json:"offset"`
}

// GetSpecVersionRequest looks up a single content-bearing version.
type GetSpecVersionRequest struct {
	ID      string `json:"id"`
	Version int32  `json:"version"`
}

// SpecVersionMessage is one row of spec_version_history.
type SpecVersionMessage struct {
	ID          string  `json:"id"`
	Version     int32   `json:"version"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

func specVersionMessageFrom(v projection.VersionEntry) *SpecVersionMessage {
	return &SpecVersionMessage{
		ID:          v.ID.String(),
		Version:     v.Version,
		Content:     v.Content,
		Description: v.Description,
	}
}

// GetSpecHistoryRequest asks for the full ordered event stream of one spec.
type GetSpecHistoryRequest struct {
	ID string `json:"id"`
}

// GetSpecHistoryResponse carries the ordered, typed event variants, one of
// Created/Updated/StateChanged populated per entry depending on EventType.
type GetSpecHistoryResponse struct {
	Events []*HistoryEventMessage `json:"events"`
}

// HistoryEventMessage is a single envelope in the history stream. Exactly
// one of Created, Updated, or StateChanged is non-nil, selected by
// EventType — the same discriminated-union shape the event store persists.
type HistoryEventMessage struct {
	EventID        string                 `json:"event_id"`
	SequenceNumber int64                  `json:"sequence_number"`
	EventType      string                 `json:"event_type"`
	CreatedAt      *timestamppb.Timestamp `json:"created_at"`

	Created      *CreatedEventMessage      `json:"created,omitempty"`
	Updated      *UpdatedEventMessage      `json:"updated,omitempty"`
	StateChanged *StateChangedEventMessage `json:"state_changed,omitempty"`
}

// CreatedEventMessage is the payload variant for a Created event.
type CreatedEventMessage struct {
	Name        string  `json:"name"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
	CreatedBy   string  `json:"created_by"`
}

// UpdatedEventMessage is the payload variant for an Updated event.
type UpdatedEventMessage struct {
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
	Version     int32   `json:"version"`
	UpdatedBy   string  `json:"updated_by"`
}

// StateChangedEventMessage is the payload variant for a StateChanged event.
type StateChangedEventMessage struct {
	Version int32   `json:"version"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Reason  *string `json:"reason,omitempty"`
	Actor   string  `json:"actor"`
}

func historyEventMessageFrom(env domain.EventEnvelope) *HistoryEventMessage {
	msg := &HistoryEventMessage{
		EventID:        env.EventID,
		SequenceNumber: env.SequenceNumber,
		EventType:      string(env.Event.EventType()),
		CreatedAt:      timestamppb.New(env.CreatedAt),
	}
	switch e := env.Event.(type) {
	case domain.Created:
		msg.Created = &CreatedEventMessage{
			Name:        e.Name.String(),
			Content:     e.Content.String(),
			Description: e.Description,
			CreatedBy:   e.CreatedBy,
		}
	case domain.Updated:
		msg.Updated = &UpdatedEventMessage{
			Content:     e.Content.String(),
			Description: e.Description,
			Version:     int32(e.Version.Int()),
			UpdatedBy:   e.UpdatedBy,
		}
	case domain.StateChanged:
		msg.StateChanged = &StateChangedEventMessage{
			Version: int32(e.Version.Int()),
			From:    string(e.From),
			To:      string(e.To),
			Reason:  e.Reason,
			Actor:   e.Actor,
		}
	}
	return msg
}
