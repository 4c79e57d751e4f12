package iocache

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/parquet"
)

// ExecuteHistoryExport exports the assessment history of the global manager to Parquet files.
func ExecuteHistoryExport(outputFile string) error {
	return ExportHistory(os.Stdout, Manager.GetAssessmentStore(), outputFile)
}

// ExportHistory writes runs to <outputFile>.triage_runs.parquet and assessments
// to <outputFile>.patient_assessments.parquet.
func ExportHistory(w io.Writer, store contract.AssessmentStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("assessment history is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no triage history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total triage runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total patient assessments: %d\n", status.TotalAssessments)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve triage runs: %w", err)
	}
	assessments, err := store.GetAllAssessments()
	if err != nil {
		return fmt.Errorf("failed to retrieve patient assessments: %w", err)
	}

	parquetRuns := parquet.ConvertTriageRunRecords(runs)
	runsFile := outputFile + ".triage_runs.parquet"
	if err := parquet.WriteTriageRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write triage runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d triage runs to: %s\n", len(parquetRuns), runsFile)

	parquetAssessments := parquet.ConvertAssessmentRecords(assessments)
	assessmentsFile := outputFile + ".patient_assessments.parquet"
	if err := parquet.WritePatientAssessmentsParquet(parquetAssessments, assessmentsFile); err != nil {
		return fmt.Errorf("failed to write patient assessments: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d patient assessments to: %s\n", len(parquetAssessments), assessmentsFile)

	return nil
}
