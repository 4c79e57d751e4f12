//go:build basic

// Package integration contains integration tests for careai.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or with database containers: go test -tags database ./integration
package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// noPersistence keeps the binary away from the default SQLite files in $HOME.
var noPersistence = []string{
	"CAREAI_CACHE_BACKEND=none",
	"CAREAI_STORE_BACKEND=none",
}

// TestTriageMatchesLibrary runs careai triage --output json and compares it
// with an in-process triage of the same dataset.
func TestTriageMatchesLibrary(t *testing.T) {
	data := writeDataset(t)

	out, err := runCareai(t, noPersistence, "triage", "--data", data, "--output", "json", "--log-level", "error")
	require.NoError(t, err)

	var cli schema.TriageOutput
	require.NoError(t, json.Unmarshal([]byte(out), &cli))

	cfg := contract.DefaultConfig()
	cfg.DataPath = data
	records, err := core.LoadRecords(cfg)
	require.NoError(t, err)
	lib, err := core.AnalyzeAllPatients(core.WithSuppressHeader(context.Background()), cfg, records, nil)
	require.NoError(t, err)

	require.Len(t, cli.Assessments, len(lib.Assessments))
	for i := range lib.Assessments {
		assert.Equal(t, lib.Assessments[i].PatientID, cli.Assessments[i].PatientID)
		assert.Equal(t, lib.Assessments[i].RiskScore, cli.Assessments[i].RiskScore)
		assert.Equal(t, lib.Assessments[i].Insight, cli.Assessments[i].Insight)
	}
	require.Len(t, cli.HighRisk, 1)
	assert.Equal(t, "P002", cli.HighRisk[0].PatientID)
	assert.Equal(t, []string{"P003"}, cli.Skipped)
}

// TestAssessDashboard checks the text view of one patient.
func TestAssessDashboard(t *testing.T) {
	data := writeDataset(t)

	out, err := runCareai(t, noPersistence, "assess", "P002", "--data", data, "--color", "no", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Patient: P002")
	assert.Contains(t, out, "Progress: No")
	assert.Contains(t, out, "Status: High")

	_, err = runCareai(t, noPersistence, "assess", "P999", "--data", data)
	assert.Error(t, err)
}

// TestPatientsListing checks the overview of the dataset.
func TestPatientsListing(t *testing.T) {
	data := writeDataset(t)

	out, err := runCareai(t, noPersistence, "patients", "--data", data, "--output", "json")
	require.NoError(t, err)

	var patients []schema.PatientOverview
	require.NoError(t, json.Unmarshal([]byte(out), &patients))
	require.Len(t, patients, 3)
	assert.Equal(t, 12, patients[0].Records)
	assert.Equal(t, 3, patients[2].Records)
}
