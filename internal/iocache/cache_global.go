package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// scoreTable is the name of the table for anomaly score caching.
const scoreTable = "careai_score_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetStoreDBFilePath returns the path to the SQLite DB file for assessment history.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// InitStores initializes the global manager with separate cache and assessment stores.
// cacheBackend can be empty to disable cache initialization.
// storeBackend can be empty to disable assessment tracking.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, storeBackend schema.DatabaseBackend, storeConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var scoreStore contract.CacheStore
		if cacheBackend != "" {
			scoreStore, err = NewScoreStore(cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize score caching: %w", err)
				return
			}
		}

		var assessmentStore contract.AssessmentStore
		if storeBackend != "" {
			assessmentStore, err = NewAssessmentStore(storeBackend, storeConnStr)
			if err != nil {
				if scoreStore != nil {
					_ = scoreStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize assessment store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.score = scoreStore
		Manager.assessment = assessmentStore
	})

	return initErr
}

// NewScoreStore opens the score cache for the backend.
// Redis gets a key-value store, everything else a SQL table.
func NewScoreStore(backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if backend == schema.RedisBackend {
		return NewRedisStore(connStr, redisKeyPrefix)
	}
	return NewCacheStore(scoreTable, backend, connStr)
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.score != nil {
			_ = Manager.score.Close()
		}
		if Manager.assessment != nil {
			_ = Manager.assessment.Close()
		}
	})
}

// ClearCache clears the score cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For Redis, it deletes every key under the cache prefix.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)

	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, scoreTable)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, scoreTable)

	case schema.RedisBackend:
		store, err := NewRedisStore(connStr, redisKeyPrefix)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		_, err = store.Clear(context.Background())
		return err

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearHistory clears the assessment history for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the history tables.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)

	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, historyTables...)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, historyTables...)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// removeSQLiteFile deletes a SQLite database file, ignoring a missing file.
func removeSQLiteFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(driverName, connStr string, tableNames ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	return dropTables(db, tableNames...)
}

// dropTables drops each table in order.
func dropTables(db *sql.DB, tableNames ...string) error {
	for _, tableName := range tableNames {
		if err := validateTableName(tableName); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", tableName, err)
		}
	}
	return nil
}
