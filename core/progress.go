package core

import (
	"github.com/careai/careai/core/algo"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// HasMadeProgress reports whether mood over the latest window is strictly
// higher than over the window before it. Short series never show progress.
func HasMadeProgress(series schema.Series, th contract.Thresholds) bool {
	n := len(series)
	w := th.ProgressWindow
	if n < th.ProgressMinRecords || n < 2*w {
		return false
	}
	mood := series.Column(schema.MoodScore)
	recent := algo.Mean(mood[n-w:])
	previous := algo.Mean(mood[n-2*w : n-w])
	return recent > previous
}
