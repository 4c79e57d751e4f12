package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// Table names for assessment history.
const (
	triageRunsTable         = "careai_triage_runs"
	patientAssessmentsTable = "careai_patient_assessments"
	migrationsTable         = "careai_schema_migrations"
)

// historyTables lists the history tables in drop order.
var historyTables = []string{patientAssessmentsTable, triageRunsTable, migrationsTable}

// assessmentColumns is the column list shared by inserts and exports.
const assessmentColumns = `run_id, patient_id, assessed_at, last_date, records, risk_score, progress,
	tier, insight, sleep_drop, low_activity, low_mood, high_hr, high_stress, missed_therapy, anomaly_fitted`

// AssessmentStoreImpl implements the AssessmentStore interface.
type AssessmentStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AssessmentStore = &AssessmentStoreImpl{} // Compile-time check

// NewAssessmentStore creates a new AssessmentStore with the specified backend.
func NewAssessmentStore(backend schema.DatabaseBackend, connStr string) (contract.AssessmentStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AssessmentStoreImpl{backend: backend}, nil
	}

	db, err := openStoreDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database server is running and accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	store, err := newAssessmentStoreWithDB(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// openStoreDB opens the SQL connection for a history backend.
func openStoreDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetStoreDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		db, err := sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// newAssessmentStoreWithDB creates the history tables on an open connection.
func newAssessmentStoreWithDB(db *sql.DB, backend schema.DatabaseBackend) (*AssessmentStoreImpl, error) {
	if err := createHistoryTables(db, backend); err != nil {
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &AssessmentStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables applies every embedded up migration for the backend.
// Each migration holds one idempotent CREATE TABLE statement.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	dir, err := migrationsDir(backend)
	if err != nil {
		return err
	}
	files, err := fs.Glob(migrationsFS, "migrations/"+dir+"/*.up.sql")
	if err != nil {
		return err
	}
	for _, file := range files {
		query, err := migrationsFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(query)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", file, err)
		}
	}
	return nil
}

// placeholders returns n parameter markers starting at position start.
func placeholders(backend schema.DatabaseBackend, start, n int) string {
	marks := make([]string, n)
	for i := range marks {
		if backend == schema.PostgreSQLBackend {
			marks[i] = fmt.Sprintf("$%d", start+i)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// BeginRun creates a new triage run and returns its unique ID.
func (as *AssessmentStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(triageRunsTable, as.backend)
	query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (%s)`, quotedTableName, placeholders(as.backend, 1, 2))

	var runID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		err = as.db.QueryRow(query+" RETURNING run_id", startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = as.db.Exec(query, formatTime(startTime, as.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert triage run: %w", err)
	}
	return runID, nil
}

// EndRun updates the triage run with completion data.
func (as *AssessmentStoreImpl) EndRun(runID int64, endTime time.Time, totalPatients, highRiskPatients int) error {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(triageRunsTable, as.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholders(as.backend, 1, 1))
	startTime, err := as.scanTime(as.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var updateQuery string
	switch as.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_patients = $3, high_risk_patients = $4 WHERE run_id = $5`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_patients = ?, high_risk_patients = ? WHERE run_id = ?`, quotedTableName)
	}

	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalPatients, highRiskPatients, runID); err != nil {
		return fmt.Errorf("failed to update triage run: %w", err)
	}
	return nil
}

// RecordAssessment stores one patient's assessment for a run.
func (as *AssessmentStoreImpl) RecordAssessment(runID int64, assessedAt time.Time, assessment schema.RiskAssessment) error {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	rec := schema.NewAssessmentRecord(runID, assessedAt, assessment)
	quotedTableName := quoteTableName(patientAssessmentsTable, as.backend)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quotedTableName, assessmentColumns, placeholders(as.backend, 1, 16))

	_, err := as.db.Exec(query,
		rec.RunID, rec.PatientID, formatTime(rec.AssessedAt, as.backend), formatTime(rec.LastDate, as.backend),
		rec.Records, rec.RiskScore, rec.Progress, rec.Tier, rec.Insight,
		rec.SleepDrop, rec.LowActivity, rec.LowMood, rec.HighHR, rec.HighStress, rec.MissedTherapy,
		rec.AnomalyFitted,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment for %s: %w", rec.PatientID, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AssessmentStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the assessment store.
func (as *AssessmentStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.backend == schema.NoneBackend || as.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(triageRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := as.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable))
		lastRunID, lastRunTime, err := as.scanIDAndTime(row)
		if err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunID = lastRunID
		status.LastRunTime = lastRunTime

		oldest, err := as.scanTime(as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest
	}

	for _, table := range []string{triageRunsTable, patientAssessmentsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalAssessments = int(status.TableSizes[patientAssessmentsTable])

	return status, nil
}

// GetAllRuns retrieves all triage runs from the store.
func (as *AssessmentStoreImpl) GetAllRuns() ([]schema.TriageRunRecord, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, total_patients, high_risk_patients, config_params
		FROM %s ORDER BY run_id`, quoteTableName(triageRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query triage runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TriageRunRecord
	for rows.Next() {
		var record schema.TriageRunRecord
		var startTime, endTime any
		if err := rows.Scan(&record.RunID, &startTime, &endTime, &record.RunDurationMs,
			&record.TotalPatients, &record.HighRiskPatients, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan triage run: %w", err)
		}
		if record.StartTime, err = parseStoredTime(startTime); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if endTime != nil {
			t, err := parseStoredTime(endTime)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &t
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating triage runs: %w", err)
	}
	return results, nil
}

// GetAllAssessments retrieves all stored patient assessments.
func (as *AssessmentStoreImpl) GetAllAssessments() ([]schema.AssessmentRecord, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY run_id, patient_id`,
		assessmentColumns, quoteTableName(patientAssessmentsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patient assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AssessmentRecord
	for rows.Next() {
		var r schema.AssessmentRecord
		var assessedAt, lastDate any
		if err := rows.Scan(&r.RunID, &r.PatientID, &assessedAt, &lastDate, &r.Records, &r.RiskScore, &r.Progress,
			&r.Tier, &r.Insight, &r.SleepDrop, &r.LowActivity, &r.LowMood, &r.HighHR, &r.HighStress,
			&r.MissedTherapy, &r.AnomalyFitted); err != nil {
			return nil, fmt.Errorf("failed to scan patient assessment: %w", err)
		}
		if r.AssessedAt, err = parseStoredTime(assessedAt); err != nil {
			return nil, fmt.Errorf("failed to parse assessed_at: %w", err)
		}
		if r.LastDate, err = parseStoredTime(lastDate); err != nil {
			return nil, fmt.Errorf("failed to parse last_date: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patient assessments: %w", err)
	}
	return results, nil
}

// scanTime reads a single timestamp column.
func (as *AssessmentStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	var raw any
	if err := row.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return parseStoredTime(raw)
}

// scanIDAndTime reads an id column followed by a timestamp column.
func (as *AssessmentStoreImpl) scanIDAndTime(row *sql.Row) (int64, time.Time, error) {
	var id int64
	var raw any
	if err := row.Scan(&id, &raw); err != nil {
		return 0, time.Time{}, err
	}
	t, err := parseStoredTime(raw)
	return id, t, err
}

// storedTimeLayouts are the text forms a timestamp column may come back in.
var storedTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"}

// parseStoredTime accepts native timestamps, the RFC3339 text SQLite stores,
// and MySQL DATETIME text when the DSN lacks parseTime=true.
func parseStoredTime(raw any) (time.Time, error) {
	var text string
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", raw)
	}
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", text)
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
