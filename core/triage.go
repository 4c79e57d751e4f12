package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/careai/careai/core/algo"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/loader"
	"github.com/careai/careai/schema"
)

// AnalyzeAllPatients assesses every patient with at least cfg.MinRecords
// records. Assessments keep the first-seen patient order regardless of
// how the worker pool schedules them.
func AnalyzeAllPatients(ctx context.Context, cfg *contract.Config, records []schema.Record, mgr contract.CacheManager) (*schema.TriageOutput, error) {
	ctx = contextWithCacheManager(ctx, mgr)

	patients := loader.GroupByPatient(records)
	eligible := make([]loader.Patient, 0, len(patients))
	skipped := make([]string, 0)
	for _, p := range patients {
		if len(p.Series) < cfg.MinRecords {
			skipped = append(skipped, p.ID)
			contract.Logger().Debug("skipping patient with too few records",
				zap.String("patient_id", p.ID),
				zap.Int("records", len(p.Series)))
			continue
		}
		eligible = append(eligible, p)
	}

	if !shouldSuppressHeader(ctx) {
		logTriageHeader(cfg, len(eligible), len(skipped))
	}

	// --- 0. Begin Run Tracking (if configured) ---
	ctx = beginRun(ctx, cfg, mgr)

	// --- 1. Per-patient assessment on the worker pool ---
	assessments, err := assessPatients(ctx, cfg, eligible)
	if err != nil {
		return nil, err
	}

	highRisk := HighRisk(assessments)

	// --- 2. Record and finish the run ---
	recordRun(ctx, mgr, assessments, len(highRisk))

	return &schema.TriageOutput{
		Assessments: assessments,
		HighRisk:    highRisk,
		Skipped:     skipped,
	}, nil
}

// assessPatients fans the eligible patients out over cfg.Workers goroutines.
// Each result is written to the slot of its patient.
func assessPatients(ctx context.Context, cfg *contract.Config, patients []loader.Patient) ([]schema.RiskAssessment, error) {
	results := make([]schema.RiskAssessment, len(patients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, p := range patients {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			detail, err := assessSeries(gctx, cfg, p.ID, p.Series)
			if err != nil {
				return fmt.Errorf("assess patient %s: %w", p.ID, err)
			}
			results[i] = detail.RiskAssessment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// HighRisk returns the High tier assessments, most urgent (lowest score) first.
func HighRisk(assessments []schema.RiskAssessment) []schema.RiskAssessment {
	return algo.RankByUrgency(algo.FilterTier(assessments, schema.HighTier), 0)
}

// beginRun opens a triage run in the assessment store and carries its ID in the context.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) context.Context {
	if mgr == nil {
		return ctx
	}
	store := mgr.GetAssessmentStore()
	if store == nil {
		return ctx
	}
	configParams := map[string]any{
		"data":            cfg.DataPath,
		"workers":         cfg.Workers,
		"min_records":     cfg.MinRecords,
		"min_fit_samples": cfg.MinFitSamples,
		"trees":           cfg.Trees,
		"contamination":   cfg.Contamination,
		"seed":            cfg.Seed,
		"thresholds":      cfg.Thresholds,
	}
	runID, err := store.BeginRun(time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Triage tracking initialization failed", err)
		return ctx
	}
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	return ctx
}

// recordRun stores every assessment of the run and closes it.
func recordRun(ctx context.Context, mgr contract.CacheManager, assessments []schema.RiskAssessment, highRisk int) {
	runID, ok := getRunID(ctx)
	if !ok || mgr == nil {
		return
	}
	store := mgr.GetAssessmentStore()
	if store == nil {
		return
	}

	now := time.Now()
	for _, a := range assessments {
		if err := store.RecordAssessment(runID, now, a); err != nil {
			logTrackingError("RecordAssessment", a.PatientID, err)
		}
	}
	if err := store.EndRun(runID, time.Now(), len(assessments), highRisk); err != nil {
		contract.LogWarn("Failed to finalize triage tracking", err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting triage.
func logTrackingError(operation, patientID string, err error) {
	contract.LogWarn(fmt.Sprintf("Triage tracking failed for %s on %s", operation, patientID), err)
}

// logTriageHeader prints a one-line summary of the run to stderr.
func logTriageHeader(cfg *contract.Config, eligible, skipped int) {
	_, _ = fmt.Fprintf(os.Stderr, "Assessing %d patients from %s (%d skipped with fewer than %d records) using %d workers\n",
		eligible, cfg.DataPath, skipped, cfg.MinRecords, cfg.Workers)
}
