package algo

import (
	"sort"

	"github.com/careai/careai/schema"
)

// RankByUrgency sorts assessments by risk score in ascending order, most
// urgent first, and returns the top 'limit' entries. Ties keep their input
// order. A limit of zero or less returns every assessment.
func RankByUrgency(assessments []schema.RiskAssessment, limit int) []schema.RiskAssessment {
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].RiskScore < assessments[j].RiskScore
	})
	if limit > 0 && len(assessments) > limit {
		return assessments[:limit]
	}
	return assessments
}

// FilterTier returns the assessments classified in the given tier, preserving order.
func FilterTier(assessments []schema.RiskAssessment, tier schema.Tier) []schema.RiskAssessment {
	out := make([]schema.RiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.Insight.Tier == tier {
			out = append(out, a)
		}
	}
	return out
}
