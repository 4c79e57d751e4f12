package core

import (
	"context"

	"github.com/careai/careai/core/algo"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// riskScoreDecimals is the rounding applied to reported risk scores.
const riskScoreDecimals = 3

// AssessPatient runs the full pipeline for one patient series.
func AssessPatient(ctx context.Context, cfg *contract.Config, patientID string, series schema.Series, mgr contract.CacheManager) (schema.PatientDetail, error) {
	return assessSeries(contextWithCacheManager(ctx, mgr), cfg, patientID, series)
}

// assessSeries scores the series, applies the deviation rules, and
// classifies the patient. Classification uses the unrounded score.
func assessSeries(ctx context.Context, cfg *contract.Config, patientID string, series schema.Series) (schema.PatientDetail, error) {
	th := cfg.Thresholds

	anomaly, err := cachedAnomalyScore(ctx, cfg, patientID, series)
	if err != nil {
		return schema.PatientDetail{}, err
	}

	stats := ComputeWindowStats(series, th)
	score := ApplyPenalties(anomaly.RawScore, stats, th)
	progress := HasMadeProgress(series, th)
	summary := SummarizeStats(stats, th)
	insight := GenerateInsight(score, progress, summary, th)

	return schema.PatientDetail{
		RiskAssessment: schema.RiskAssessment{
			PatientID:     patientID,
			RiskScore:     algo.Round(score, riskScoreDecimals),
			Progress:      progress,
			Summary:       summary,
			Insight:       insight,
			Records:       len(series),
			LastDate:      series.LastDate(),
			AnomalyFitted: anomaly.Fitted,
		},
		Stats: stats,
	}, nil
}
