package iocache

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careai/careai/schema"
)

func sampleAssessment(id string, tier schema.Tier, score float64) schema.RiskAssessment {
	return schema.RiskAssessment{
		PatientID:     id,
		RiskScore:     score,
		Progress:      tier == schema.StableTier,
		Summary:       schema.DeviationSummary{SleepDrop: tier == schema.HighTier, HighStress: tier == schema.HighTier},
		Insight:       schema.Insight{Tier: tier, Text: string(tier) + " insight"},
		Records:       10,
		LastDate:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		AnomalyFitted: true,
	}
}

func TestAssessmentStore_NoneBackend(t *testing.T) {
	store, err := NewAssessmentStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), map[string]any{"trees": 200})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, time.Now(), 10, 2))
	assert.NoError(t, store.RecordAssessment(1, time.Now(), sampleAssessment("P1", schema.HighTier, -0.4)))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestAssessmentStore_UnsupportedBackend(t *testing.T) {
	_, err := NewAssessmentStore(schema.RedisBackend, "redis://localhost:6379")
	assert.Error(t, err)
}

func TestAssessmentStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewAssessmentStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(startTime, map[string]any{"trees": 200, "contamination": 0.12})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	assessedAt := startTime.Add(time.Second)
	require.NoError(t, store.RecordAssessment(runID, assessedAt, sampleAssessment("P002", schema.StableTier, 0.05)))
	require.NoError(t, store.RecordAssessment(runID, assessedAt, sampleAssessment("P001", schema.HighTier, -0.417)))

	endTime := startTime.Add(1500 * time.Millisecond)
	require.NoError(t, store.EndRun(runID, endTime, 2, 1))

	t.Run("runs", func(t *testing.T) {
		runs, err := store.GetAllRuns()
		require.NoError(t, err)
		require.Len(t, runs, 1)

		run := runs[0]
		assert.Equal(t, runID, run.RunID)
		assert.True(t, startTime.Equal(run.StartTime))
		require.NotNil(t, run.EndTime)
		assert.True(t, endTime.Equal(*run.EndTime))
		require.NotNil(t, run.RunDurationMs)
		assert.Equal(t, int32(1500), *run.RunDurationMs)
		assert.Equal(t, int32(2), run.TotalPatients)
		assert.Equal(t, int32(1), run.HighRiskPatients)
		require.NotNil(t, run.ConfigParams)
		assert.JSONEq(t, `{"trees":200,"contamination":0.12}`, *run.ConfigParams)
	})

	t.Run("assessments", func(t *testing.T) {
		records, err := store.GetAllAssessments()
		require.NoError(t, err)
		require.Len(t, records, 2)

		// ordered by run then patient id
		assert.Equal(t, "P001", records[0].PatientID)
		assert.Equal(t, "High", records[0].Tier)
		assert.InDelta(t, -0.417, records[0].RiskScore, 1e-12)
		assert.True(t, records[0].SleepDrop)
		assert.True(t, records[0].HighStress)
		assert.False(t, records[0].Progress)
		assert.True(t, records[0].AnomalyFitted)
		assert.True(t, assessedAt.Equal(records[0].AssessedAt))
		assert.True(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).Equal(records[0].LastDate))

		assert.Equal(t, "P002", records[1].PatientID)
		assert.True(t, records[1].Progress)
		assert.Equal(t, int32(10), records[1].Records)
	})

	t.Run("status", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 1, status.TotalRuns)
		assert.Equal(t, runID, status.LastRunID)
		assert.True(t, startTime.Equal(status.LastRunTime))
		assert.True(t, startTime.Equal(status.OldestRunTime))
		assert.Equal(t, 2, status.TotalAssessments)
		assert.Equal(t, int64(1), status.TableSizes[triageRunsTable])
		assert.Equal(t, int64(2), status.TableSizes[patientAssessmentsTable])
	})

	t.Run("duplicate patient in run", func(t *testing.T) {
		err := store.RecordAssessment(runID, assessedAt, sampleAssessment("P001", schema.HighTier, -0.417))
		assert.Error(t, err)
	})
}

func TestAssessmentStore_EndRunUnknownID(t *testing.T) {
	store, err := NewAssessmentStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(999, time.Now(), 0, 0))
}

func TestAssessmentStore_PostgreSQLQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newAssessmentStoreWithDB(db, schema.PostgreSQLBackend)
	require.NoError(t, err)

	start := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "careai_triage_runs" (start_time, config_params) VALUES ($1, $2) RETURNING run_id`)).
		WithArgs(start, `{"seed":42}`).
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}).AddRow(int64(7)))
	runID, err := store.BeginRun(start, map[string]any{"seed": 42})
	require.NoError(t, err)
	assert.Equal(t, int64(7), runID)

	a := sampleAssessment("P001", schema.HighTier, -0.417)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "careai_patient_assessments"`)).
		WithArgs(int64(7), "P001", start, a.LastDate, int32(10), -0.417, false, "High", "High insight",
			true, false, false, false, true, false, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.RecordAssessment(7, start, a))

	end := start.Add(2 * time.Second)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT start_time FROM "careai_triage_runs" WHERE run_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"start_time"}).AddRow(start))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "careai_triage_runs" SET end_time = $1, run_duration_ms = $2, total_patients = $3, high_risk_patients = $4 WHERE run_id = $5`)).
		WithArgs(end, int64(2000), 1, 1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.EndRun(7, end, 1, 1))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_MySQLInsertUsesLastInsertID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newAssessmentStoreWithDB(db, schema.MySQLBackend)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `careai_triage_runs` (start_time, config_params) VALUES (?, ?)")).
		WillReturnResult(sqlmock.NewResult(11, 1))
	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), runID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?", placeholders(schema.MySQLBackend, 4, 1))
	assert.Equal(t, "$2, $3", placeholders(schema.PostgreSQLBackend, 2, 2))
}

func TestParseStoredTime(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	got, err := parseStoredTime(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseStoredTime(want.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseStoredTime([]byte("2025-03-01 12:30:00.000000"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = parseStoredTime(42)
	assert.Error(t, err)

	_, err = parseStoredTime("yesterday")
	assert.Error(t, err)
}
