package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholdsValid(t *testing.T) {
	th := DefaultThresholds()
	require.NoError(t, th.Validate())
	assert.Equal(t, 3, th.RecentWindow)
	assert.Equal(t, 8, th.ProgressMinRecords)
	assert.Equal(t, -0.2, th.ScoreCutoff)
}

func TestProcessThresholdsRawInput(t *testing.T) {
	cutoff := -0.3
	window := 5
	th, err := ProcessThresholdsRawInput(ThresholdsRawInput{ScoreCutoff: &cutoff, RecentWindow: &window})
	require.NoError(t, err)
	assert.Equal(t, -0.3, th.ScoreCutoff)
	assert.Equal(t, 5, th.RecentWindow)
	assert.Equal(t, 0.30, th.StressPenalty)

	th, err = ProcessThresholdsRawInput(ThresholdsRawInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), th)
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{"zero window", func(th *Thresholds) { th.RecentWindow = 0 }},
		{"zero progress window", func(th *Thresholds) { th.ProgressWindow = 0 }},
		{"progress records too few", func(th *Thresholds) { th.ProgressMinRecords = 7 }},
		{"quantile above one", func(th *Thresholds) { th.ActivityQuantile = 1.5 }},
		{"negative penalty", func(th *Thresholds) { th.StressPenalty = -0.1 }},
		{"hard signals above three", func(th *Thresholds) { th.HardSignalMin = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			assert.Error(t, th.Validate())
		})
	}
}
