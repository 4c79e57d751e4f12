package iocache

import (
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careai/careai/schema"
)

func TestCacheStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(scoreTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("miss", func(t *testing.T) {
		_, _, _, err := store.Get("absent")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"raw_score":0.13,"fitted":true}`), 1, 1700000000))

		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"raw_score":0.13,"fitted":true}`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("v2"), 2, 1700000100))

		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(1700000100), ts)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("v"), 1, 1600000000))

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(1600000000, 0), status.OldestEntryTime)
		assert.Equal(t, time.Unix(1700000100, 0), status.LastEntryTime)
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})
}

func TestCacheStore_NoneBackend(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err)

	assert.NoError(t, store.Set("test_key", []byte("test_value"), 1, 123456789))

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "Set is a no-op on none backend")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestCacheStore_UnsupportedBackend(t *testing.T) {
	_, err := NewCacheStore(scoreTable, schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestCacheStore_InvalidTableName(t *testing.T) {
	_, err := NewCacheStore("scores; DROP TABLE x", schema.NoneBackend, "")
	assert.Error(t, err)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "test_table", false},
		{"valid name with numbers", "test_table_123", false},
		{"leading underscore", "_cache", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"contains space", "my table", true},
		{"contains quote", `tab"le`, true},
		{"contains semicolon", "t;drop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`scores`", quoteTableName("scores", schema.MySQLBackend))
	assert.Equal(t, `"scores"`, quoteTableName("scores", schema.PostgreSQLBackend))
	assert.Equal(t, `"scores"`, quoteTableName("scores", schema.SQLiteBackend))
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("c", schema.MySQLBackend), "VARCHAR(255) PRIMARY KEY")
	assert.Contains(t, getCreateTableQuery("c", schema.PostgreSQLBackend), "BYTEA")
	assert.Contains(t, getCreateTableQuery("c", schema.SQLiteBackend), "cache_timestamp INTEGER")
}

func newMockCacheStore(t *testing.T, backend schema.DatabaseBackend, connStr string) (*CacheStoreImpl, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newCacheStoreWithDB(db, scoreTable, backend, connStr)
	require.NoError(t, err)
	return store, mock
}

func TestCacheStore_PostgreSQLQueries(t *testing.T) {
	store, mock := newMockCacheStore(t, schema.PostgreSQLBackend, "host=localhost dbname=careai")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "careai_score_cache"`)).
		WithArgs("k", []byte("v"), 1, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Set("k", []byte("v"), 1, 42))

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE cache_key = $1`)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"cache_value", "cache_version", "cache_timestamp"}).AddRow([]byte("v"), 1, int64(42)))
	value, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(42), ts)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "careai_score_cache"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MIN(cache_timestamp), MAX(cache_timestamp)`)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(int64(10), int64(20)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT pg_total_relation_size($1)`)).
		WithArgs(scoreTable).
		WillReturnRows(sqlmock.NewRows([]string{"size"}).AddRow(int64(8192)))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalEntries)
	assert.Equal(t, time.Unix(10, 0), status.OldestEntryTime)
	assert.Equal(t, time.Unix(20, 0), status.LastEntryTime)
	assert.Equal(t, int64(8192), status.TableSizeBytes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_MySQLQueries(t *testing.T) {
	store, mock := newMockCacheStore(t, schema.MySQLBackend, "user:pass@tcp(localhost:3306)/careai")

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs("k", []byte("v"), 1, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Set("k", []byte("v"), 1, 42))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `careai_score_cache`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MIN(cache_timestamp), MAX(cache_timestamp)`)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(int64(10), int64(20)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs("careai", scoreTable).
		WillReturnError(sql.ErrConnDone)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(2*fallbackRowBytes), status.TableSizeBytes, "falls back to the per-row estimate")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_EmptyStatusSkipsRange(t *testing.T) {
	store, mock := newMockCacheStore(t, schema.PostgreSQLBackend, "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries)
	assert.True(t, status.LastEntryTime.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}
