package core

import (
	"testing"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
	"github.com/stretchr/testify/assert"
)

func moodSeries(moods ...float64) schema.Series {
	return makeSeries("P1", len(moods), func(i int, r *schema.Record) {
		r.MoodScore = moods[i]
	})
}

func TestHasMadeProgress(t *testing.T) {
	th := contract.DefaultThresholds()
	tests := []struct {
		name     string
		moods    []float64
		expected bool
	}{
		{"seven records never progress", []float64{1, 1, 1, 5, 5, 5, 5}, false},
		{"eight records improving", []float64{1, 1, 1, 1, 2, 2, 2, 2}, true},
		{"eight records flat", []float64{3, 3, 3, 3, 3, 3, 3, 3}, false},
		{"eight records declining", []float64{4, 4, 4, 4, 2, 2, 2, 2}, false},
		{"only the last eight count", []float64{9, 9, 1, 1, 1, 1, 2, 2, 2, 2}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasMadeProgress(moodSeries(tt.moods...), th))
		})
	}
}
