// Package storage holds the shared SQLite bootstrap used by the event
// store, projection store, and checkpoint store, all of which share one
// *sql.DB connection pool per process.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultDSN matches the default the original service used, expressed in
// modernc.org/sqlite's pragma-in-DSN form so WAL mode is applied before any
// pooled connection issues its first query.
const DefaultDSN = "file:spec_service.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Open opens (and where needed creates) the SQLite database at dsn. An empty
// dsn falls back to an in-memory database, the shape used by tests and by
// WithMemoryDatabase-style options elsewhere in the ecosystem this service's
// stack is drawn from.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared&_pragma=journal_mode(WAL)"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writers internally; a single connection
	// avoids SQLITE_BUSY storms under WAL from this process's own pool.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}
