package iocache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careai/careai/schema"
)

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestMigrateStore_NoneBackend(t *testing.T) {
	err := MigrateStore(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")
	assert.True(t, tableExists(t, dbPath, triageRunsTable))
	assert.True(t, tableExists(t, dbPath, patientAssessmentsTable))
	assert.True(t, tableExists(t, dbPath, migrationsTable))

	out.Reset()
	require.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "already at the latest version")

	out.Reset()
	require.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath, triageRunsTable))
	assert.False(t, tableExists(t, dbPath, patientAssessmentsTable))

	out.Reset()
	require.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "rolled back")
	assert.False(t, tableExists(t, dbPath, triageRunsTable))

	require.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, 2))
	assert.True(t, tableExists(t, dbPath, patientAssessmentsTable))
}

func TestMigrateStore_AfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewAssessmentStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var out bytes.Buffer
	assert.NoError(t, migrateStore(&out, schema.SQLiteBackend, dbPath, -1))
}

func TestMigrationsDir(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "postgres",
	} {
		got, err := migrationsDir(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := migrationsDir(schema.RedisBackend)
	assert.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	for _, dir := range []string{"sqlite", "mysql", "postgres"} {
		ups, err := migrationsFS.ReadDir("migrations/" + dir)
		require.NoError(t, err)
		assert.Len(t, ups, 4, "%s should hold two up/down pairs", dir)
	}
}
