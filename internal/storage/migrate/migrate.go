// Package migrate applies embedded, version-numbered SQL migrations against
// a *sql.DB, tracking applied versions in a per-caller-named table.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/navicore/specsvc/internal/clock"
)

// Migration is one version-numbered schema change, loaded from a pair of
// `NNNNNN_name.up.sql` / `NNNNNN_name.down.sql` files.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator tracks and applies migrations against a database, recording
// applied versions in tableName.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	tableName  string
}

// New creates a Migrator that records applied versions in tableName (e.g.
// "schema_migrations").
func New(db *sql.DB, tableName string) *Migrator {
	return &Migrator{db: db, tableName: tableName}
}

// LoadFromFS loads every `NNNNNN_name.{up,down}.sql` pair found directly
// under dir in fsys.
func (m *Migrator) LoadFromFS(fsys embed.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		if len(parts) != 2 {
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		content, err := fs.ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", name, err)
		}

		migration, ok := byVersion[version]
		if !ok {
			migration = &Migration{Version: version}
			byVersion[version] = migration
		}

		remainder := parts[1]
		switch {
		case strings.HasSuffix(remainder, ".up.sql"):
			migration.Name = strings.TrimSuffix(remainder, ".up.sql")
			migration.Up = string(content)
		case strings.HasSuffix(remainder, ".down.sql"):
			migration.Down = string(content)
		}
	}

	for _, migration := range byVersion {
		m.migrations = append(m.migrations, *migration)
	}
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
	return nil
}

func (m *Migrator) ensureMigrationTable() error {
	_, err := m.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`, m.tableName))
	if err != nil {
		return fmt.Errorf("create table %s: %w", m.tableName, err)
	}
	return nil
}

func (m *Migrator) currentVersion() (int, error) {
	var version int
	err := m.db.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.tableName)).Scan(&version)
	return version, err
}

// Up applies all pending migrations in version order, each in its own
// transaction.
func (m *Migrator) Up() error {
	if err := m.ensureMigrationTable(); err != nil {
		return err
	}
	current, err := m.currentVersion()
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(migration); err != nil {
			return fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// Down rolls back the single most recently applied migration.
func (m *Migrator) Down() error {
	if err := m.ensureMigrationTable(); err != nil {
		return err
	}
	current, err := m.currentVersion()
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	if current == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	var toRollback *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == current {
			toRollback = &m.migrations[i]
			break
		}
	}
	if toRollback == nil {
		return fmt.Errorf("migration %d not found", current)
	}
	if toRollback.Down == "" {
		return fmt.Errorf("migration %d has no down script", current)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(toRollback.Down); err != nil {
		return fmt.Errorf("execute rollback sql: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE version = ?", m.tableName), current); err != nil {
		return fmt.Errorf("remove migration record: %w", err)
	}
	return tx.Commit()
}

func (m *Migrator) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("execute migration sql: %w", err)
	}
	_, err = tx.Exec(fmt.Sprintf(
		"INSERT INTO %s (version, name, applied_at) VALUES (?, ?, ?)", m.tableName,
	), migration.Version, migration.Name, clock.Now().Unix())
	if err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// Version returns the highest applied migration version, 0 if none.
func (m *Migrator) Version() (int, error) {
	if err := m.ensureMigrationTable(); err != nil {
		return 0, err
	}
	return m.currentVersion()
}
