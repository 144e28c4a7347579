package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFreshDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plantcare.db")

	database, err := Open(path, nil)
	require.NoError(t, err)
	defer database.Close()

	version, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), version)

	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='factor_active'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plantcare.db")

	first, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, SeedLookups(first))
	require.NoError(t, first.Close())

	var logged []string
	second, err := Open(path, func(msg string, _ ...any) { logged = append(logged, msg) })
	require.NoError(t, err)
	defer second.Close()

	assert.Empty(t, logged, "no migrations should run on an up-to-date database")
}

func TestRunMigrationsOnEmptyDatabase(t *testing.T) {
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	defer database.Close()

	require.NoError(t, ensureVersionTable(database))

	var logged []string
	require.NoError(t, RunMigrations(database, func(msg string, _ ...any) { logged = append(logged, msg) }))

	assert.Equal(t, []string{"running migration", "migration completed"}, logged)
	version, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestSeedLookupsIsRepeatable(t *testing.T) {
	database, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, SeedLookups(database))
	require.NoError(t, SeedLookups(database))

	var weight float64
	require.NoError(t, database.QueryRow("SELECT weight FROM status_factor_weights WHERE factor_code = 'watering_due'").Scan(&weight))
	assert.Equal(t, 1.0, weight)

	var category string
	require.NoError(t, database.QueryRow("SELECT factor_category FROM factor_lookup WHERE factor_code = 'watering_due'").Scan(&category))
	assert.Equal(t, "WATERING", category)
}

func TestPartialUniqueIndexes(t *testing.T) {
	database, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer database.Close()

	insert := "INSERT INTO factor_active (id, plant_id, factor_code, history_id, run_id) VALUES (?, 'p-1', 'watering_due', ?, 'run-1')"
	_, err = database.Exec(insert, "a-1", "a-1")
	require.NoError(t, err)

	_, err = database.Exec(insert, "a-2", "a-2")
	assert.Error(t, err, "second active row for the same key must be rejected")

	_, err = database.Exec("UPDATE factor_active SET is_active = 0 WHERE id = 'a-1'")
	require.NoError(t, err)
	_, err = database.Exec(insert, "a-3", "a-3")
	assert.NoError(t, err, "retired rows do not block a new active row")
}
