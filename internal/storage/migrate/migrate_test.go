package migrate

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navicore/specsvc/internal/storage"
)

//go:embed testdata/migrations/*.sql
var testMigrationsFS embed.FS

func TestUpAppliesMigrationsInOrder(t *testing.T) {
	db, err := storage.Open("")
	require.NoError(t, err)
	defer db.Close()

	m := New(db, "widgets_schema_migrations")
	require.NoError(t, m.LoadFromFS(testMigrationsFS, "testdata/migrations"))
	require.NoError(t, m.Up())

	version, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, 2, version)

	_, err = db.Exec("INSERT INTO widgets (id, name, qty) VALUES (1, 'bolt', 5)")
	require.NoError(t, err)
}

func TestDownRollsBackOnlyTheLatestMigration(t *testing.T) {
	db, err := storage.Open("")
	require.NoError(t, err)
	defer db.Close()

	m := New(db, "widgets_schema_migrations")
	require.NoError(t, m.LoadFromFS(testMigrationsFS, "testdata/migrations"))
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())

	version, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, 1, version)

	// version 1's table is still there; version 2's column is not.
	_, err = db.Exec("INSERT INTO widgets (id, name) VALUES (1, 'bolt')")
	require.NoError(t, err)
	_, err = db.Exec("SELECT qty FROM widgets")
	require.Error(t, err)
}

func TestDownWithNoAppliedMigrationsErrors(t *testing.T) {
	db, err := storage.Open("")
	require.NoError(t, err)
	defer db.Close()

	m := New(db, "widgets_schema_migrations")
	require.NoError(t, m.LoadFromFS(testMigrationsFS, "testdata/migrations"))
	require.Error(t, m.Down())
}
