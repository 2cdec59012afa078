package eventstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/navicore/specsvc/internal/domain"
)

// eventDTO is the on-disk JSON shape for the events.event_data column. Only
// the fields relevant to a given discriminator are populated; the others are
// omitted (omitempty) to keep stored rows close to what a hand-written
// serializer for each variant would produce.
type eventDTO struct {
	Type string `json:"type"`

	Name        string  `json:"name,omitempty"`
	Content     string  `json:"content,omitempty"`
	Description *string `json:"description,omitempty"`
	CreatedBy   string  `json:"created_by,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`

	Version   int    `json:"version,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`

	FromState string  `json:"from_state,omitempty"`
	ToState   string  `json:"to_state,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Actor     string  `json:"actor,omitempty"`
	ChangedAt string  `json:"changed_at,omitempty"`
}

type metadataDTO struct {
	CorrelationID *string `json:"correlation_id,omitempty"`
	CausationID   *string `json:"causation_id,omitempty"`
	UserAgent     *string `json:"user_agent,omitempty"`
	IPAddress     *string `json:"ip_address,omitempty"`
}

func encodeEvent(evt domain.Event) (eventType string, data []byte, err error) {
	var dto eventDTO
	switch e := evt.(type) {
	case domain.Created:
		dto = eventDTO{
			Type:        string(domain.EventTypeCreated),
			Name:        e.Name.String(),
			Content:     e.Content.String(),
			Description: e.Description,
			CreatedBy:   e.CreatedBy,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	case domain.Updated:
		dto = eventDTO{
			Type:        string(domain.EventTypeUpdated),
			Content:     e.Content.String(),
			Description: e.Description,
			Version:     e.Version.Int(),
			UpdatedBy:   e.UpdatedBy,
			UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
	case domain.StateChanged:
		dto = eventDTO{
			Type:      string(domain.EventTypeStateChanged),
			Version:   e.Version.Int(),
			FromState: string(e.From),
			ToState:   string(e.To),
			Reason:    e.Reason,
			Actor:     e.Actor,
			ChangedAt: e.ChangedAt.UTC().Format(time.RFC3339Nano),
		}
	default:
		return "", nil, fmt.Errorf("unknown event type %T", evt)
	}
	data, err = json.Marshal(dto)
	return dto.Type, data, err
}

func decodeEvent(eventType string, data []byte) (domain.Event, error) {
	var dto eventDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("unmarshal event_data: %w", err)
	}

	switch domain.EventType(eventType) {
	case domain.EventTypeCreated:
		name, err := domain.NewName(dto.Name)
		if err != nil {
			return nil, err
		}
		content, err := domain.NewContent(dto.Content)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, dto.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		return domain.Created{
			Name:        name,
			Content:     content,
			Description: dto.Description,
			CreatedBy:   dto.CreatedBy,
			CreatedAt:   createdAt,
		}, nil

	case domain.EventTypeUpdated:
		content, err := domain.NewContent(dto.Content)
		if err != nil {
			return nil, err
		}
		updatedAt, err := time.Parse(time.RFC3339Nano, dto.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		return domain.Updated{
			Content:     content,
			Description: dto.Description,
			Version:     domain.NewVersion(dto.Version),
			UpdatedBy:   dto.UpdatedBy,
			UpdatedAt:   updatedAt,
		}, nil

	case domain.EventTypeStateChanged:
		changedAt, err := time.Parse(time.RFC3339Nano, dto.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("parse changed_at: %w", err)
		}
		return domain.StateChanged{
			Version:   domain.NewVersion(dto.Version),
			From:      domain.State(dto.FromState),
			To:        domain.State(dto.ToState),
			Reason:    dto.Reason,
			Actor:     dto.Actor,
			ChangedAt: changedAt,
		}, nil

	default:
		return nil, fmt.Errorf("unknown event type discriminator %q", eventType)
	}
}

func encodeMetadata(m domain.EventMetadata) ([]byte, error) {
	return json.Marshal(metadataDTO{
		CorrelationID: m.CorrelationID,
		CausationID:   m.CausationID,
		UserAgent:     m.UserAgent,
		IPAddress:     m.IPAddress,
	})
}

func decodeMetadata(data []byte) (domain.EventMetadata, error) {
	if len(data) == 0 {
		return domain.EventMetadata{}, nil
	}
	var dto metadataDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.EventMetadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return domain.EventMetadata{
		CorrelationID: dto.CorrelationID,
		CausationID:   dto.CausationID,
		UserAgent:     dto.UserAgent,
		IPAddress:     dto.IPAddress,
	}, nil
}
