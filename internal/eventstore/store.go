// Package eventstore is the append-only log: per-aggregate dense sequence
// numbers, a monotonic global cursor (SQLite's rowid), and atomic,
// all-or-nothing appends guarded by a unique (aggregate_id, sequence_number)
// index.
package eventstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navicore/specsvc/internal/clock"
	"github.com/navicore/specsvc/internal/domain"
	"github.com/navicore/specsvc/internal/idgen"
	"github.com/navicore/specsvc/internal/storage/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed, append-only event log for Spec aggregates.
type Store struct {
	db *sql.DB
}

// New wraps an already-open database handle, running pending migrations.
func New(db *sql.DB) (*Store, error) {
	m := migrate.New(db, "eventstore_schema_migrations")
	if err := m.LoadFromFS(migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("load event store migrations: %w", err)
	}
	if err := m.Up(); err != nil {
		return nil, fmt.Errorf("apply event store migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying handle, so sibling stores (projections,
// checkpoints) can share one pool and one transaction when needed.
func (s *Store) DB() *sql.DB { return s.db }

// GlobalEvent is one row as seen by the projector: an envelope plus the
// owning aggregate id and the store-wide cursor position it landed at.
type GlobalEvent struct {
	GlobalCursor int64
	AggregateID  uuid.UUID
	Envelope     domain.EventEnvelope
}

// AppendEvents assigns contiguous sequence numbers starting at
// current-max+1 and inserts all events in one transaction: either all land,
// or none do. A concurrent appender that wins the race for the same
// sequence number causes this call to fail with domain.ErrConcurrencyConflict,
// which callers should treat as retryable (reload, reapply the command).
func (s *Store) AppendEvents(ctx context.Context, aggregateID uuid.UUID, events []domain.Event, metadata domain.EventMetadata) ([]domain.EventEnvelope, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewEventStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT MAX(sequence_number) FROM events WHERE aggregate_id = ?", aggregateID.String(),
	).Scan(&maxSeq)
	if err != nil {
		return nil, domain.NewEventStoreError("read max sequence", err)
	}

	nextSeq := int64(1)
	if maxSeq.Valid {
		nextSeq = maxSeq.Int64 + 1
	}

	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return nil, domain.NewEventStoreError("encode metadata", err)
	}

	envelopes := make([]domain.EventEnvelope, 0, len(events))
	now := clock.Now()
	for i, evt := range events {
		eventType, data, err := encodeEvent(evt)
		if err != nil {
			return nil, domain.NewEventStoreError("encode event", err)
		}
		seq := nextSeq + int64(i)
		eventID := idgen.MustGenerateSortableID()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (event_id, aggregate_id, sequence_number, event_type, event_data, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, eventID, aggregateID.String(), seq, eventType, data, metadataJSON, now.Unix())
		if err != nil {
			if isUniqueConstraintViolation(err) {
				return nil, domain.ErrConcurrencyConflict
			}
			return nil, domain.NewEventStoreError("insert event", err)
		}

		envelopes = append(envelopes, domain.EventEnvelope{
			EventID:        eventID,
			AggregateID:    aggregateID,
			SequenceNumber: seq,
			Event:          evt,
			Metadata:       metadata,
			CreatedAt:      now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewEventStoreError("commit append", err)
	}
	return envelopes, nil
}

// GetEvents returns events for aggregateID with sequence_number >
// fromSequence (0 means "from the start"), ordered ascending.
func (s *Store) GetEvents(ctx context.Context, aggregateID uuid.UUID, fromSequence int64) ([]domain.EventEnvelope, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, sequence_number, event_type, event_data, metadata, created_at
		FROM events
		WHERE aggregate_id = ? AND sequence_number > ?
		ORDER BY sequence_number ASC
	`, aggregateID.String(), fromSequence)
	if err != nil {
		return nil, domain.NewEventStoreError("query events", err)
	}
	defer rows.Close()

	var out []domain.EventEnvelope
	for rows.Next() {
		env, err := scanEnvelope(rows, aggregateID)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewEventStoreError("iterate events", err)
	}
	return out, nil
}

// GetAllEvents returns up to limit rows with rowid > fromGlobalCursor,
// ordered by rowid, used exclusively by the event processor.
func (s *Store) GetAllEvents(ctx context.Context, fromGlobalCursor int64, limit int) ([]GlobalEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, aggregate_id, event_id, sequence_number, event_type, event_data, metadata, created_at
		FROM events
		WHERE rowid > ?
		ORDER BY rowid ASC
		LIMIT ?
	`, fromGlobalCursor, limit)
	if err != nil {
		return nil, domain.NewEventStoreError("query all events", err)
	}
	defer rows.Close()

	var out []GlobalEvent
	for rows.Next() {
		var (
			cursor            int64
			aggregateIDStr    string
			eventID           string
			seq               int64
			eventType         string
			eventData         []byte
			metadataData      []byte
			createdAtUnix     int64
		)
		if err := rows.Scan(&cursor, &aggregateIDStr, &eventID, &seq, &eventType, &eventData, &metadataData, &createdAtUnix); err != nil {
			return nil, domain.NewEventStoreError("scan global event", err)
		}
		aggregateID, err := uuid.Parse(aggregateIDStr)
		if err != nil {
			return nil, domain.NewEventStoreError("parse aggregate id", err)
		}
		evt, err := decodeEvent(eventType, eventData)
		if err != nil {
			return nil, domain.NewEventStoreError("decode event", err)
		}
		meta, err := decodeMetadata(metadataData)
		if err != nil {
			return nil, domain.NewEventStoreError("decode metadata", err)
		}
		out = append(out, GlobalEvent{
			GlobalCursor: cursor,
			AggregateID:  aggregateID,
			Envelope: domain.EventEnvelope{
				EventID:        eventID,
				AggregateID:    aggregateID,
				SequenceNumber: seq,
				Event:          evt,
				Metadata:       meta,
				CreatedAt:      unixToTime(createdAtUnix),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewEventStoreError("iterate all events", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEnvelope(rows rowScanner, aggregateID uuid.UUID) (domain.EventEnvelope, error) {
	var (
		eventID       string
		seq           int64
		eventType     string
		eventData     []byte
		metadataData  []byte
		createdAtUnix int64
	)
	if err := rows.Scan(&eventID, &seq, &eventType, &eventData, &metadataData, &createdAtUnix); err != nil {
		return domain.EventEnvelope{}, domain.NewEventStoreError("scan event", err)
	}
	evt, err := decodeEvent(eventType, eventData)
	if err != nil {
		return domain.EventEnvelope{}, domain.NewEventStoreError("decode event", err)
	}
	meta, err := decodeMetadata(metadataData)
	if err != nil {
		return domain.EventEnvelope{}, domain.NewEventStoreError("decode metadata", err)
	}
	return domain.EventEnvelope{
		EventID:        eventID,
		AggregateID:    aggregateID,
		SequenceNumber: seq,
		Event:          evt,
		Metadata:       meta,
		CreatedAt:      unixToTime(createdAtUnix),
	}, nil
}

func isUniqueConstraintViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
