// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTriage prints the batch triage report using the configured output format.
func (ow *OutWriter) WriteTriage(output *schema.TriageOutput, cfg *contract.Config, duration time.Duration) error {
	return WriteTriageResults(output, cfg, duration)
}

// WriteAssessment prints one patient's dashboard using the configured output format.
func (ow *OutWriter) WriteAssessment(detail schema.PatientDetail, series schema.Series, cfg *contract.Config) error {
	return WriteAssessmentResult(detail, series, cfg)
}

// WritePatients prints the patient overview using the configured output format.
func (ow *OutWriter) WritePatients(patients []schema.PatientOverview, cfg *contract.Config) error {
	return WritePatientOverview(patients, cfg)
}

// WriteThresholds prints the active thresholds using the configured output format.
func (ow *OutWriter) WriteThresholds(th contract.Thresholds, cfg *contract.Config) error {
	return WriteThresholdValues(th, cfg)
}
