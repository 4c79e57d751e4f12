package schema

import "time"

// Value returns the value of a feature column for the record.
func (r Record) Value(f Feature) float64 {
	switch f {
	case SleepHours:
		return r.SleepHours
	case ActivityLevel:
		return r.ActivityLevel
	case MoodScore:
		return r.MoodScore
	case TherapyAttended:
		return r.TherapyAttended
	case HeartRate:
		return r.HeartRate
	case StressLevel:
		return r.StressLevel
	}
	return 0
}

// SetValue stores a value into a feature column of the record.
func (r *Record) SetValue(f Feature, v float64) {
	switch f {
	case SleepHours:
		r.SleepHours = v
	case ActivityLevel:
		r.ActivityLevel = v
	case MoodScore:
		r.MoodScore = v
	case TherapyAttended:
		r.TherapyAttended = v
	case HeartRate:
		r.HeartRate = v
	case StressLevel:
		r.StressLevel = v
	}
}

// Vector returns the record's features in ModelFeatures order.
func (r Record) Vector() []float64 {
	out := make([]float64, len(ModelFeatures))
	for i, f := range ModelFeatures {
		out[i] = r.Value(f)
	}
	return out
}

// Tail returns the last n records, or the whole series when it is shorter.
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Column returns one feature column of the series.
func (s Series) Column(f Feature) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.Value(f)
	}
	return out
}

// Matrix returns the series as rows of ModelFeatures vectors.
func (s Series) Matrix() [][]float64 {
	out := make([][]float64, len(s))
	for i, r := range s {
		out[i] = r.Vector()
	}
	return out
}

// LastDate returns the date of the most recent record, or the zero time for an empty series.
func (s Series) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// FirstDate returns the date of the earliest record, or the zero time for an empty series.
func (s Series) FirstDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

// DuplicateDates counts records that share a calendar date with the record before them.
func (s Series) DuplicateDates() int {
	dupes := 0
	for i := 1; i < len(s); i++ {
		if sameDay(s[i].Date, s[i-1].Date) {
			dupes++
		}
	}
	return dupes
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Reasons returns the active deviation flags as explanation phrases, in fixed order.
func (d DeviationSummary) Reasons() []string {
	var reasons []string
	if d.SleepDrop {
		reasons = append(reasons, "reduced sleep")
	}
	if d.LowActivity {
		reasons = append(reasons, "low activity levels")
	}
	if d.LowMood {
		reasons = append(reasons, "persistently low mood")
	}
	if d.HighHR {
		reasons = append(reasons, "elevated heart rate")
	}
	if d.HighStress {
		reasons = append(reasons, "high stress levels")
	}
	if d.MissedTherapy {
		reasons = append(reasons, "missed therapy sessions")
	}
	return reasons
}

// HardSignals counts the physiological and adherence flags that can escalate to High.
func (d DeviationSummary) HardSignals() int {
	n := 0
	for _, b := range []bool{d.HighHR, d.HighStress, d.MissedTherapy} {
		if b {
			n++
		}
	}
	return n
}
