// Package projection maintains the read-side of the service: a current-state
// row per spec and a content-bearing version history, both kept up to date
// by the event processor (see internal/processor) rather than by the write
// path.
package projection

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/storage/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed projection store with an optional in-memory
// read cache.
type Store struct {
	db        *sql.DB
	cache     *cache
	useCache  bool
}

// New wraps an already-open database handle, running pending migrations.
// withCache enables the write-through in-memory cache for point reads.
func New(db *sql.DB, withCache bool) (*Store, error) {
	m := migrate.New(db, "projection_schema_migrations")
	if err := m.LoadFromFS(migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("load projection migrations: %w", err)
	}
	if err := m.Up(); err != nil {
		return nil, fmt.Errorf("apply projection migrations: %w", err)
	}
	return &Store{db: db, cache: newCache(), useCache: withCache}, nil
}

// DB returns the underlying handle so the processor can open a shared
// transaction across a projection write and a checkpoint save.
func (s *Store) DB() *sql.DB { return s.db }

// BeginTx starts a transaction for the caller (the processor) to apply one
// event and the paired checkpoint update atomically, or to truncate the
// tables and reset the checkpoint for a rebuild.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// ApplyEventTx dispatches one event onto the projection tables within tx, per
// SPEC_FULL.md §4.4: Created inserts a projections row and a v1 history row;
// Updated updates the projections row and inserts a history row for the new
// version; StateChanged only updates the projections row. History inserts
// use INSERT OR IGNORE as defense in depth against a reprocessed event (the
// checkpoint, advanced in the same transaction, is the primary guard).
func (s *Store) ApplyEventTx(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID, evt domain.Event) error {
	switch e := evt.(type) {
	case domain.Created:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO spec_projections (id, name, name_normalized, content, description, version, state, created_at, created_by, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?)
		`, aggregateID.String(), e.Name.String(), e.Name.Normalized(), e.Content.String(), e.Description, string(domain.StateDraft),
			e.CreatedAt.Unix(), e.CreatedBy, e.CreatedAt.Unix(), e.CreatedBy)
		if err != nil {
			return domain.NewProjectionError("insert projection for Created", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO spec_version_history (id, version, content, description, created_at, created_by)
			VALUES (?, 1, ?, ?, ?, ?)
		`, aggregateID.String(), e.Content.String(), e.Description, e.CreatedAt.Unix(), e.CreatedBy)
		if err != nil {
			return domain.NewProjectionError("insert history for Created", err)
		}
		return nil

	case domain.Updated:
		_, err := tx.ExecContext(ctx, `
			UPDATE spec_projections
			SET content = ?, description = ?, version = ?, updated_at = ?, updated_by = ?
			WHERE id = ?
		`, e.Content.String(), e.Description, e.Version.Int(), e.UpdatedAt.Unix(), e.UpdatedBy, aggregateID.String())
		if err != nil {
			return domain.NewProjectionError("update projection for Updated", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO spec_version_history (id, version, content, description, created_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?)
		`, aggregateID.String(), e.Version.Int(), e.Content.String(), e.Description, e.UpdatedAt.Unix(), e.UpdatedBy)
		if err != nil {
			return domain.NewProjectionError("insert history for Updated", err)
		}
		return nil

	case domain.StateChanged:
		_, err := tx.ExecContext(ctx, `
			UPDATE spec_projections SET state = ?, updated_at = ? WHERE id = ?
		`, string(e.To), e.ChangedAt.Unix(), aggregateID.String())
		if err != nil {
			return domain.NewProjectionError("update projection for StateChanged", err)
		}
		return nil

	default:
		return domain.NewProjectionError(fmt.Sprintf("unknown event type %T", evt), nil)
	}
}

// WarmCache loads aggregateID's current row from the database and, if
// useCache is enabled, stores it — called after a transaction that touched
// aggregateID commits successfully, never before.
func (s *Store) WarmCache(ctx context.Context, aggregateID uuid.UUID) error {
	if !s.useCache {
		return nil
	}
	row, err := s.getByIDFromDB(ctx, aggregateID)
	if err != nil {
		if err == domain.ErrSpecNotFound {
			s.cache.delete(aggregateID)
			return nil
		}
		return err
	}
	s.cache.put(row)
	return nil
}

// GetByID returns the current projection for id, preferring the in-memory
// cache when enabled.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Spec, error) {
	if s.useCache {
		if v, ok := s.cache.get(id); ok {
			return v, nil
		}
	}
	return s.getByIDFromDB(ctx, id)
}

func (s *Store) getByIDFromDB(ctx context.Context, id uuid.UUID) (Spec, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, content, description, version, state, created_at, created_by, updated_at, updated_by
		FROM spec_projections WHERE id = ?
	`, id.String())
	spec, err := scanSpec(row)
	if err == sql.ErrNoRows {
		return Spec{}, domain.ErrSpecNotFound
	}
	if err != nil {
		return Spec{}, domain.NewProjectionError("get by id", err)
	}
	return spec, nil
}

// GetByName returns the current projection for the given unique name.
func (s *Store) GetByName(ctx context.Context, name string) (Spec, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, content, description, version, state, created_at, created_by, updated_at, updated_by
		FROM spec_projections WHERE name = ?
	`, name)
	spec, err := scanSpec(row)
	if err == sql.ErrNoRows {
		return Spec{}, domain.ErrSpecNotFound
	}
	if err != nil {
		return Spec{}, domain.NewProjectionError("get by name", err)
	}
	return spec, nil
}

// GetByNormalizedName returns the current projection whose name's NFC
// normalization equals normalized, the form the unique index is built on.
// Use this, not GetByName, for duplicate-name detection.
func (s *Store) GetByNormalizedName(ctx context.Context, normalized string) (Spec, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, content, description, version, state, created_at, created_by, updated_at, updated_by
		FROM spec_projections WHERE name_normalized = ?
	`, normalized)
	spec, err := scanSpec(row)
	if err == sql.ErrNoRows {
		return Spec{}, domain.ErrSpecNotFound
	}
	if err != nil {
		return Spec{}, domain.NewProjectionError("get by normalized name", err)
	}
	return spec, nil
}

// ListByState returns summaries ordered by updated_at DESC. A nil state
// excludes Deleted specs, never returning them by default.
func (s *Store) ListByState(ctx context.Context, state *domain.State, limit, offset int) ([]Summary, int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if state != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, name, version, state, updated_at FROM spec_projections
			WHERE state = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?
		`, string(*state), limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, name, version, state, updated_at FROM spec_projections
			WHERE state != ? ORDER BY updated_at DESC LIMIT ? OFFSET ?
		`, string(domain.StateDeleted), limit, offset)
	}
	if err != nil {
		return nil, 0, domain.NewProjectionError("list by state", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			idStr         string
			name          string
			version       int
			stateStr      string
			updatedAtUnix int64
		)
		if err := rows.Scan(&idStr, &name, &version, &stateStr, &updatedAtUnix); err != nil {
			return nil, 0, domain.NewProjectionError("scan summary", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, 0, domain.NewProjectionError("parse id", err)
		}
		out = append(out, Summary{
			ID:        id,
			Name:      name,
			Version:   version,
			State:     domain.State(stateStr),
			UpdatedAt: unixToTime(updatedAtUnix),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewProjectionError("iterate summaries", err)
	}

	var total int
	if state != nil {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spec_projections WHERE state = ?", string(*state)).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spec_projections WHERE state != ?", string(domain.StateDeleted)).Scan(&total)
	}
	if err != nil {
		return nil, 0, domain.NewProjectionError("count summaries", err)
	}

	return out, total, nil
}

// GetVersion returns exactly the content and description supplied by the
// Created or Updated event at version v.
func (s *Store) GetVersion(ctx context.Context, id uuid.UUID, v int) (VersionEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, content, description, created_at, created_by
		FROM spec_version_history WHERE id = ? AND version = ?
	`, id.String(), v)

	var (
		idStr         string
		version       int
		content       string
		description   sql.NullString
		createdAtUnix int64
		createdBy     string
	)
	err := row.Scan(&idStr, &version, &content, &description, &createdAtUnix, &createdBy)
	if err == sql.ErrNoRows {
		return VersionEntry{}, domain.ErrSpecNotFound
	}
	if err != nil {
		return VersionEntry{}, domain.NewProjectionError("get version", err)
	}
	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return VersionEntry{}, domain.NewProjectionError("parse id", err)
	}
	entry := VersionEntry{
		ID:        parsedID,
		Version:   version,
		Content:   content,
		CreatedAt: unixToTime(createdAtUnix),
		CreatedBy: createdBy,
	}
	if description.Valid {
		d := description.String
		entry.Description = &d
	}
	return entry, nil
}

// TruncateTx deletes every row from both projection tables within tx, used
// only by RebuildProjections.
func (s *Store) TruncateTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM spec_version_history"); err != nil {
		return domain.NewProjectionError("truncate version history", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM spec_projections"); err != nil {
		return domain.NewProjectionError("truncate projections", err)
	}
	s.cache.clear()
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpec(row rowScanner) (Spec, error) {
	var (
		idStr         string
		name          string
		content       string
		description   sql.NullString
		version       int
		stateStr      string
		createdAtUnix int64
		createdBy     string
		updatedAtUnix int64
		updatedBy     string
	)
	if err := row.Scan(&idStr, &name, &content, &description, &version, &stateStr, &createdAtUnix, &createdBy, &updatedAtUnix, &updatedBy); err != nil {
		return Spec{}, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Spec{}, fmt.Errorf("parse id: %w", err)
	}
	spec := Spec{
		ID:        id,
		Name:      name,
		Content:   content,
		Version:   version,
		State:     domain.State(stateStr),
		CreatedAt: unixToTime(createdAtUnix),
		CreatedBy: createdBy,
		UpdatedAt: unixToTime(updatedAtUnix),
		UpdatedBy: updatedBy,
	}
	if description.Valid {
		d := description.String
		spec.Description = &d
	}
	return spec, nil
}
