package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesTail(t *testing.T) {
	s := Series{{MoodScore: 1}, {MoodScore: 2}, {MoodScore: 3}, {MoodScore: 4}}

	assert.Equal(t, []float64{3, 4}, s.Tail(2).Column(MoodScore))
	assert.Len(t, s.Tail(10), 4)
	assert.Empty(t, s.Tail(0))
}

func TestRecordVectorOrder(t *testing.T) {
	r := Record{SleepHours: 1, ActivityLevel: 2, MoodScore: 3, TherapyAttended: 4, HeartRate: 5, StressLevel: 6}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, r.Vector())

	var w Record
	for i, f := range ModelFeatures {
		w.SetValue(f, float64(i+1))
	}
	assert.Equal(t, r, w)
}

func TestSeriesDates(t *testing.T) {
	s := Series{{Date: day(1)}, {Date: day(2)}, {Date: day(2)}, {Date: day(3)}}
	assert.Equal(t, day(1), s.FirstDate())
	assert.Equal(t, day(3), s.LastDate())
	assert.Equal(t, 1, s.DuplicateDates())

	var empty Series
	assert.True(t, empty.LastDate().IsZero())
}

func TestSeriesDuplicateDatesIgnoreTimeOfDay(t *testing.T) {
	morning := day(2).Add(8 * time.Hour)
	evening := day(2).Add(20 * time.Hour)
	s := Series{{Date: day(1)}, {Date: morning}, {Date: evening}, {Date: day(3)}}
	assert.Equal(t, 1, s.DuplicateDates())

	late := Series{{Date: day(1).Add(23 * time.Hour)}, {Date: day(2).Add(time.Hour)}}
	assert.Equal(t, 0, late.DuplicateDates())
}

func TestDeviationSummaryReasons(t *testing.T) {
	tests := []struct {
		name    string
		summary DeviationSummary
		want    []string
		hard    int
	}{
		{"none", DeviationSummary{}, nil, 0},
		{"mood only", DeviationSummary{LowMood: true}, []string{"persistently low mood"}, 0},
		{
			"all",
			DeviationSummary{true, true, true, true, true, true},
			[]string{
				"reduced sleep", "low activity levels", "persistently low mood",
				"elevated heart rate", "high stress levels", "missed therapy sessions",
			},
			3,
		},
		{"hr and therapy", DeviationSummary{HighHR: true, MissedTherapy: true}, []string{"elevated heart rate", "missed therapy sessions"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.Reasons())
			assert.Equal(t, tt.hard, tt.summary.HardSignals())
		})
	}
}
