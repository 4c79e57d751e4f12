// Package parquet provides data structures and functions for exporting triage
// history and reports to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/careai/careai/schema"
)

// TriageRun represents a single batch triage run with metadata.
// This struct maps to the careai_triage_runs database table.
type TriageRun struct {
	// RunID is the unique identifier for this triage run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalPatients is the number of patients assessed in this run
	TotalPatients int32 `parquet:"total_patients,snappy"`

	// HighRiskPatients is the number of patients classified High
	HighRiskPatients int32 `parquet:"high_risk_patients,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// PatientAssessment is one patient's assessment within a run.
// This struct maps to the careai_patient_assessments database table.
type PatientAssessment struct {
	RunID         int64     `parquet:"run_id,snappy"`
	PatientID     string    `parquet:"patient_id,snappy,dict"`
	AssessedAt    time.Time `parquet:"assessed_at,snappy"`
	LastDate      time.Time `parquet:"last_date,snappy"`
	Records       int32     `parquet:"records,snappy"`
	RiskScore     float64   `parquet:"risk_score,snappy"`
	Progress      bool      `parquet:"progress"`
	Tier          string    `parquet:"tier,snappy,dict"`
	Insight       string    `parquet:"insight,snappy"`
	SleepDrop     bool      `parquet:"sleep_drop"`
	LowActivity   bool      `parquet:"low_activity"`
	LowMood       bool      `parquet:"low_mood"`
	HighHR        bool      `parquet:"high_hr"`
	HighStress    bool      `parquet:"high_stress"`
	MissedTherapy bool      `parquet:"missed_therapy"`
	AnomalyFitted bool      `parquet:"anomaly_fitted"`
}

// WriteTriageRunsParquet writes a slice of TriageRun structs to a Parquet file.
func WriteTriageRunsParquet(data []TriageRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WritePatientAssessmentsParquet writes a slice of PatientAssessment structs to a Parquet file.
func WritePatientAssessmentsParquet(data []PatientAssessment, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertTriageRunRecords converts schema.TriageRunRecord to TriageRun for Parquet export.
func ConvertTriageRunRecords(records []schema.TriageRunRecord) []TriageRun {
	result := make([]TriageRun, len(records))
	for i, record := range records {
		result[i] = TriageRun{
			RunID:            record.RunID,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			TotalPatients:    record.TotalPatients,
			HighRiskPatients: record.HighRiskPatients,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertAssessmentRecords converts schema.AssessmentRecord to PatientAssessment for Parquet export.
func ConvertAssessmentRecords(records []schema.AssessmentRecord) []PatientAssessment {
	result := make([]PatientAssessment, len(records))
	for i, r := range records {
		result[i] = PatientAssessment{
			RunID:         r.RunID,
			PatientID:     r.PatientID,
			AssessedAt:    r.AssessedAt,
			LastDate:      r.LastDate,
			Records:       r.Records,
			RiskScore:     r.RiskScore,
			Progress:      r.Progress,
			Tier:          r.Tier,
			Insight:       r.Insight,
			SleepDrop:     r.SleepDrop,
			LowActivity:   r.LowActivity,
			LowMood:       r.LowMood,
			HighHR:        r.HighHR,
			HighStress:    r.HighStress,
			MissedTherapy: r.MissedTherapy,
			AnomalyFitted: r.AnomalyFitted,
		}
	}
	return result
}

// ConvertAssessments flattens in-memory assessments that were never stored.
func ConvertAssessments(assessments []schema.RiskAssessment, assessedAt time.Time) []PatientAssessment {
	records := make([]schema.AssessmentRecord, len(assessments))
	for i, a := range assessments {
		records[i] = schema.NewAssessmentRecord(0, assessedAt, a)
	}
	return ConvertAssessmentRecords(records)
}
