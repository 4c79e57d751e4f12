package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careai/careai/schema"
)

func TestExportHistory(t *testing.T) {
	store := &MockAssessmentStore{}
	start := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	store.On("GetStatus").Return(schema.StoreStatus{Backend: "sqlite", Connected: true, TotalRuns: 1, TotalAssessments: 1}, nil)
	store.On("GetAllRuns").Return([]schema.TriageRunRecord{{RunID: 1, StartTime: start, TotalPatients: 1, HighRiskPatients: 1}}, nil)
	store.On("GetAllAssessments").Return([]schema.AssessmentRecord{{RunID: 1, PatientID: "P001", AssessedAt: start, Tier: "High"}}, nil)

	base := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	require.NoError(t, ExportHistory(&out, store, base))

	for _, suffix := range []string{".triage_runs.parquet", ".patient_assessments.parquet"} {
		info, err := os.Stat(base + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Contains(t, out.String(), "Exported 1 triage runs")
	assert.Contains(t, out.String(), "Exported 1 patient assessments")
	store.AssertExpectations(t)
}

func TestExportHistory_Errors(t *testing.T) {
	var out bytes.Buffer

	t.Run("missing output file", func(t *testing.T) {
		assert.Error(t, ExportHistory(&out, &MockAssessmentStore{}, ""))
	})

	t.Run("no store", func(t *testing.T) {
		assert.Error(t, ExportHistory(&out, nil, "x"))
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockAssessmentStore{}
		store.On("GetStatus").Return(schema.StoreStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExportHistory(&out, store, filepath.Join(t.TempDir(), "h"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no triage history")
	})

	t.Run("status failure", func(t *testing.T) {
		store := &MockAssessmentStore{}
		store.On("GetStatus").Return(schema.StoreStatus{}, errors.New("boom"))
		assert.Error(t, ExportHistory(&out, store, filepath.Join(t.TempDir(), "h")))
	})
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintCacheStatus(&out, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    2,
		LastEntryTime:   time.Date(2025, 3, 2, 10, 0, 0, 0, time.Local),
		OldestEntryTime: time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local),
		TableSizeBytes:  4096,
	})
	assert.Contains(t, out.String(), "Cache Backend: sqlite")
	assert.Contains(t, out.String(), "Total Entries: 2")
	assert.Contains(t, out.String(), "Last Entry: 2025-03-02 10:00:00")
	assert.Contains(t, out.String(), "Table Size: 4096 bytes")

	out.Reset()
	PrintCacheStatus(&out, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, out.String(), "Total Entries")

	out.Reset()
	PrintStoreStatus(&out, schema.StoreStatus{
		Backend:          "sqlite",
		Connected:        true,
		TotalRuns:        3,
		LastRunID:        3,
		TotalAssessments: 30,
		TableSizes:       map[string]int64{patientAssessmentsTable: 30, triageRunsTable: 3},
	})
	text := out.String()
	assert.Contains(t, text, "Total Runs: 3")
	assert.Contains(t, text, "Total Assessments: 30")
	assert.Less(t, bytes.Index(out.Bytes(), []byte(patientAssessmentsTable)), bytes.Index(out.Bytes(), []byte(triageRunsTable)), "tables are listed in name order")
}
