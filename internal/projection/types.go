package projection

import (
	"time"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/domain"
)

// Spec is the full current-state read model for point reads: every
// aggregate attribute, denormalized for a single-row lookup.
type Spec struct {
	ID          uuid.UUID
	Name        string
	Content     string
	Description *string
	Version     int
	State       domain.State
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	UpdatedBy   string
}

// VersionEntry is one content-bearing version of a spec, as stored in
// spec_version_history.
type VersionEntry struct {
	ID          uuid.UUID
	Version     int
	Content     string
	Description *string
	CreatedAt   time.Time
	CreatedBy   string
}

// Summary is the trimmed shape returned by ListByState, omitting content to
// keep list responses small.
type Summary struct {
	ID        uuid.UUID
	Name      string
	Version   int
	State     domain.State
	UpdatedAt time.Time
}
