package core

import (
	"github.com/careai/careai/core/algo"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// AnomalyModel scores every record of a series; higher values are more normal.
type AnomalyModel interface {
	Score(series schema.Series) ([]float64, error)
}

// DetectConcern combines the mean anomaly score of the series with the
// baseline deviation penalties. A nil model contributes a neutral score of zero.
func DetectConcern(model AnomalyModel, series schema.Series, th contract.Thresholds) (float64, error) {
	raw, err := AnomalyContribution(model, series)
	if err != nil {
		return 0, err
	}
	return ApplyPenalties(raw, ComputeWindowStats(series, th), th), nil
}

// AnomalyContribution is the mean model score over the series, or zero when
// there is no fitted model.
func AnomalyContribution(model AnomalyModel, series schema.Series) (float64, error) {
	if model == nil || len(series) == 0 {
		return 0, nil
	}
	scores, err := model.Score(series)
	if err != nil {
		return 0, err
	}
	return algo.Mean(scores), nil
}

// ComputeWindowStats computes the whole-series baselines and trailing-window
// averages the rules compare. The window shrinks for short series.
func ComputeWindowStats(series schema.Series, th contract.Thresholds) schema.WindowStats {
	recent := series.Tail(th.RecentWindow)
	return schema.WindowStats{
		BaselineSleep:  algo.Mean(series.Column(schema.SleepHours)),
		BaselineMood:   algo.Mean(series.Column(schema.MoodScore)),
		BaselineHR:     algo.Mean(series.Column(schema.HeartRate)),
		RecentSleep:    algo.Mean(recent.Column(schema.SleepHours)),
		RecentMood:     algo.Mean(recent.Column(schema.MoodScore)),
		RecentHR:       algo.Mean(recent.Column(schema.HeartRate)),
		RecentStress:   algo.Mean(recent.Column(schema.StressLevel)),
		RecentActivity: algo.Mean(recent.Column(schema.ActivityLevel)),
		RecentTherapy:  algo.Sum(recent.Column(schema.TherapyAttended)),
		ActivityQ25:    algo.Quantile(series.Column(schema.ActivityLevel), th.ActivityQuantile),
	}
}

// ApplyPenalties subtracts each triggered deviation penalty from raw.
// Penalties are independent and the result is not clamped.
func ApplyPenalties(raw float64, st schema.WindowStats, th contract.Thresholds) float64 {
	score := raw
	if st.RecentSleep < th.SleepDropRatio*st.BaselineSleep {
		score -= th.SleepDropPenalty
	}
	if st.RecentHR > th.HRRiseRatio*st.BaselineHR {
		score -= th.HRRisePenalty
	}
	if st.RecentStress > th.StressLimit {
		score -= th.StressPenalty
	}
	if st.RecentActivity < st.ActivityQ25 {
		score -= th.ActivityPenalty
	}
	// Mood is weak context and never escalates on its own.
	if st.RecentMood < th.MoodDropRatio*st.BaselineMood {
		score -= th.MoodDropPenalty
	}
	return score
}

// SummarizeChanges flags absolute deviations over the trailing window.
func SummarizeChanges(series schema.Series, th contract.Thresholds) schema.DeviationSummary {
	return SummarizeStats(ComputeWindowStats(series, th), th)
}

// SummarizeStats flags absolute deviations from precomputed window statistics.
func SummarizeStats(st schema.WindowStats, th contract.Thresholds) schema.DeviationSummary {
	return schema.DeviationSummary{
		SleepDrop:     st.RecentSleep < th.SleepFloor,
		LowActivity:   st.RecentActivity < st.ActivityQ25,
		LowMood:       st.RecentMood < th.MoodFloor,
		HighHR:        st.RecentHR > th.HRCeiling,
		HighStress:    st.RecentStress > th.StressCeiling,
		MissedTherapy: st.RecentTherapy < th.TherapyMin,
	}
}
