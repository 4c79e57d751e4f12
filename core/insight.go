package core

import (
	"fmt"
	"strings"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// noChangesText replaces the reason list when no deviation is flagged.
const noChangesText = "no significant behavioral changes"

// ClassifyTier maps a combined score to a tier. High needs at least one
// physiological or adherence signal and no recent progress.
func ClassifyTier(score float64, progress bool, summary schema.DeviationSummary, th contract.Thresholds) schema.Tier {
	switch {
	case score < th.ScoreCutoff && summary.HardSignals() >= th.HardSignalMin && !progress:
		return schema.HighTier
	case score < th.ScoreCutoff:
		return schema.MediumTier
	default:
		return schema.StableTier
	}
}

// GenerateInsight classifies the patient and renders the nurse-facing explanation.
func GenerateInsight(score float64, progress bool, summary schema.DeviationSummary, th contract.Thresholds) schema.Insight {
	tier := ClassifyTier(score, progress, summary, th)
	reasons := ReasonText(summary)

	var text string
	switch tier {
	case schema.HighTier:
		text = fmt.Sprintf("High risk: Patient shows %s. Immediate nurse review recommended.", reasons)
	case schema.MediumTier:
		text = fmt.Sprintf("Medium risk: Behavioral changes detected (%s). Close monitoring advised.", reasons)
	default:
		text = "Stable: No concerning behavioral changes detected. Continue routine monitoring."
	}
	return schema.Insight{Tier: tier, Text: text}
}

// ReasonText joins the flagged reasons in fixed order.
func ReasonText(summary schema.DeviationSummary) string {
	reasons := summary.Reasons()
	if len(reasons) == 0 {
		return noChangesText
	}
	return strings.Join(reasons, ", ")
}
