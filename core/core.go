// Package core has core logic for risk assessment, classification and triage.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/loader"
	"github.com/careai/careai/internal/outwriter"
	"github.com/careai/careai/schema"
)

// ErrNoDataPath is returned when a command needs a dataset but none is configured.
var ErrNoDataPath = errors.New("no dataset configured, use --data or CAREAI_DATA")

// ErrPatientNotFound is returned when the requested patient has no records.
var ErrPatientNotFound = errors.New("patient not found")

// LoadRecords reads and processes the configured dataset.
func LoadRecords(cfg *contract.Config) ([]schema.Record, error) {
	if cfg.DataPath == "" {
		return nil, ErrNoDataPath
	}
	return loader.Read(cfg.DataPath)
}

// ExecuteTriage runs the batch triage and prints the report.
// It serves as the main entry point for the 'triage' command.
func ExecuteTriage(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	records, err := LoadRecords(cfg)
	if err != nil {
		return err
	}
	output, err := AnalyzeAllPatients(ctx, cfg, records, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	contract.Logger().Info("triage finished",
		zap.Int("assessed", len(output.Assessments)),
		zap.Int("high_risk", len(output.HighRisk)),
		zap.Duration("duration", duration))
	return outwriter.NewOutWriter().WriteTriage(output, cfg, duration)
}

// ExecuteAssess assesses one patient and prints the dashboard view.
// It serves as the main entry point for the 'assess' command.
func ExecuteAssess(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	records, err := LoadRecords(cfg)
	if err != nil {
		return err
	}
	detail, series, err := AssessOne(ctx, cfg, records, cfg.PatientID, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteAssessment(detail, series, cfg)
}

// AssessOne finds one patient in the records and assesses them.
func AssessOne(ctx context.Context, cfg *contract.Config, records []schema.Record, patientID string, mgr contract.CacheManager) (schema.PatientDetail, schema.Series, error) {
	series, ok := loader.FindPatient(records, patientID)
	if !ok {
		return schema.PatientDetail{}, nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if len(series) < cfg.MinRecords {
		contract.Logger().Warn("patient has fewer records than batch triage requires",
			zap.String("patient_id", patientID),
			zap.Int("records", len(series)),
			zap.Int("min_records", cfg.MinRecords))
	}
	detail, err := AssessPatient(ctx, cfg, patientID, series, mgr)
	if err != nil {
		return schema.PatientDetail{}, nil, err
	}
	return detail, series, nil
}

// ExecutePatients lists the patients of the dataset.
func ExecutePatients(_ context.Context, cfg *contract.Config) error {
	records, err := LoadRecords(cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePatients(loader.Overview(records), cfg)
}

// ExecuteThresholds prints the active clinical thresholds.
func ExecuteThresholds(_ context.Context, cfg *contract.Config) error {
	return outwriter.NewOutWriter().WriteThresholds(cfg.Thresholds, cfg)
}
