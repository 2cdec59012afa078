package rest

import (
	"time"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/projection"
)

type createSpecRequest struct {
	Name        string  `json:"name"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

type createSpecResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

type updateSpecRequest struct {
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

type updateSpecResponse struct {
	Version int `json:"version"`
}

type publishSpecRequest struct {
	Version *int `json:"version,omitempty"`
}

type deprecateSpecRequest struct {
	Reason string `json:"reason"`
}

type specResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	Description *string   `json:"description,omitempty"`
	Version     int       `json:"version"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by"`
}

func specResponseFrom(s projection.Spec) specResponse {
	return specResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		Content:     s.Content,
		Description: s.Description,
		Version:     s.Version,
		State:       string(s.State),
		CreatedAt:   s.CreatedAt,
		CreatedBy:   s.CreatedBy,
		UpdatedAt:   s.UpdatedAt,
		UpdatedBy:   s.UpdatedBy,
	}
}

type specSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

func specSummaryFrom(s projection.Summary) specSummary {
	return specSummary{
		ID:        s.ID.String(),
		Name:      s.Name,
		Version:   s.Version,
		State:     string(s.State),
		UpdatedAt: s.UpdatedAt,
	}
}

type listSpecsResponse struct {
	Specs  []specSummary `json:"specs"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type versionResponse struct {
	ID          string  `json:"id"`
	Version     int     `json:"version"`
	Content     string  `json:"content"`
	Description *string `json:"description,omitempty"`
}

func versionResponseFrom(v projection.VersionEntry) versionResponse {
	return versionResponse{
		ID:          v.ID.String(),
		Version:     v.Version,
		Content:     v.Content,
		Description: v.Description,
	}
}

func stateFromQuery(raw string) (*domain.State, bool) {
	if raw == "" {
		return nil, true
	}
	switch domain.State(raw) {
	case domain.StateDraft, domain.StatePublished, domain.StateDeprecated, domain.StateDeleted:
		s := domain.State(raw)
		return &s, true
	default:
		return nil, false
	}
}
