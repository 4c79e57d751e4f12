package algo

import (
	"testing"

	"github.com/careai/careai/schema"
	"github.com/stretchr/testify/assert"
)

func assessment(id string, score float64, tier schema.Tier) schema.RiskAssessment {
	return schema.RiskAssessment{PatientID: id, RiskScore: score, Insight: schema.Insight{Tier: tier}}
}

func ids(as []schema.RiskAssessment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.PatientID
	}
	return out
}

func TestRankByUrgency(t *testing.T) {
	input := []schema.RiskAssessment{
		assessment("a", -0.3, schema.HighTier),
		assessment("b", -0.9, schema.HighTier),
		assessment("c", -0.3, schema.HighTier),
		assessment("d", -0.5, schema.HighTier),
	}

	got := RankByUrgency(input, 0)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(got))

	got = RankByUrgency(got, 2)
	assert.Equal(t, []string{"b", "d"}, ids(got))
}

func TestFilterTier(t *testing.T) {
	input := []schema.RiskAssessment{
		assessment("a", -0.3, schema.HighTier),
		assessment("b", -0.4, schema.MediumTier),
		assessment("c", 0.1, schema.StableTier),
		assessment("d", -0.6, schema.HighTier),
	}
	assert.Equal(t, []string{"a", "d"}, ids(FilterTier(input, schema.HighTier)))
	assert.Empty(t, FilterTier(input[1:3], schema.HighTier))
}
