package contract

import "fmt"

// Thresholds holds every tunable constant of the deviation rules, progress
// tracker and risk classifier.
type Thresholds struct {
	RecentWindow int `json:"recent_window"` // trailing records compared against the baseline

	SleepDropRatio   float64 `json:"sleep_drop_ratio"`
	SleepDropPenalty float64 `json:"sleep_drop_penalty"`
	HRRiseRatio      float64 `json:"hr_rise_ratio"`
	HRRisePenalty    float64 `json:"hr_rise_penalty"`
	StressLimit      float64 `json:"stress_limit"`
	StressPenalty    float64 `json:"stress_penalty"`
	ActivityQuantile float64 `json:"activity_quantile"`
	ActivityPenalty  float64 `json:"activity_penalty"`
	MoodDropRatio    float64 `json:"mood_drop_ratio"`
	MoodDropPenalty  float64 `json:"mood_drop_penalty"`

	SleepFloor    float64 `json:"sleep_floor"`
	MoodFloor     float64 `json:"mood_floor"`
	HRCeiling     float64 `json:"hr_ceiling"`
	StressCeiling float64 `json:"stress_ceiling"`
	TherapyMin    float64 `json:"therapy_min"`

	ProgressMinRecords int `json:"progress_min_records"`
	ProgressWindow     int `json:"progress_window"`

	ScoreCutoff   float64 `json:"score_cutoff"`
	HardSignalMin int     `json:"hard_signal_min"`
}

// DefaultThresholds returns the clinical thresholds used when no overrides are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecentWindow: 3,

		SleepDropRatio:   0.70,
		SleepDropPenalty: 0.30,
		HRRiseRatio:      1.15,
		HRRisePenalty:    0.25,
		StressLimit:      7,
		StressPenalty:    0.30,
		ActivityQuantile: 0.25,
		ActivityPenalty:  0.15,
		MoodDropRatio:    0.70,
		MoodDropPenalty:  0.10,

		SleepFloor:    4,
		MoodFloor:     2,
		HRCeiling:     100,
		StressCeiling: 7,
		TherapyMin:    2,

		ProgressMinRecords: 8,
		ProgressWindow:     4,

		ScoreCutoff:   -0.2,
		HardSignalMin: 1,
	}
}

// ThresholdsRawInput holds threshold overrides from the YAML config file.
type ThresholdsRawInput struct {
	RecentWindow       *int     `mapstructure:"recent_window"`
	SleepDropRatio     *float64 `mapstructure:"sleep_drop_ratio"`
	SleepDropPenalty   *float64 `mapstructure:"sleep_drop_penalty"`
	HRRiseRatio        *float64 `mapstructure:"hr_rise_ratio"`
	HRRisePenalty      *float64 `mapstructure:"hr_rise_penalty"`
	StressLimit        *float64 `mapstructure:"stress_limit"`
	StressPenalty      *float64 `mapstructure:"stress_penalty"`
	ActivityQuantile   *float64 `mapstructure:"activity_quantile"`
	ActivityPenalty    *float64 `mapstructure:"activity_penalty"`
	MoodDropRatio      *float64 `mapstructure:"mood_drop_ratio"`
	MoodDropPenalty    *float64 `mapstructure:"mood_drop_penalty"`
	SleepFloor         *float64 `mapstructure:"sleep_floor"`
	MoodFloor          *float64 `mapstructure:"mood_floor"`
	HRCeiling          *float64 `mapstructure:"hr_ceiling"`
	StressCeiling      *float64 `mapstructure:"stress_ceiling"`
	TherapyMin         *float64 `mapstructure:"therapy_min"`
	ProgressMinRecords *int     `mapstructure:"progress_min_records"`
	ProgressWindow     *int     `mapstructure:"progress_window"`
	ScoreCutoff        *float64 `mapstructure:"score_cutoff"`
	HardSignalMin      *int     `mapstructure:"hard_signal_min"`
}

// ProcessThresholdsRawInput applies raw overrides on top of the defaults and validates the result.
func ProcessThresholdsRawInput(raw ThresholdsRawInput) (Thresholds, error) {
	th := DefaultThresholds()

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&th.RecentWindow, raw.RecentWindow)
	setFloat(&th.SleepDropRatio, raw.SleepDropRatio)
	setFloat(&th.SleepDropPenalty, raw.SleepDropPenalty)
	setFloat(&th.HRRiseRatio, raw.HRRiseRatio)
	setFloat(&th.HRRisePenalty, raw.HRRisePenalty)
	setFloat(&th.StressLimit, raw.StressLimit)
	setFloat(&th.StressPenalty, raw.StressPenalty)
	setFloat(&th.ActivityQuantile, raw.ActivityQuantile)
	setFloat(&th.ActivityPenalty, raw.ActivityPenalty)
	setFloat(&th.MoodDropRatio, raw.MoodDropRatio)
	setFloat(&th.MoodDropPenalty, raw.MoodDropPenalty)
	setFloat(&th.SleepFloor, raw.SleepFloor)
	setFloat(&th.MoodFloor, raw.MoodFloor)
	setFloat(&th.HRCeiling, raw.HRCeiling)
	setFloat(&th.StressCeiling, raw.StressCeiling)
	setFloat(&th.TherapyMin, raw.TherapyMin)
	setInt(&th.ProgressMinRecords, raw.ProgressMinRecords)
	setInt(&th.ProgressWindow, raw.ProgressWindow)
	setFloat(&th.ScoreCutoff, raw.ScoreCutoff)
	setInt(&th.HardSignalMin, raw.HardSignalMin)

	if err := th.Validate(); err != nil {
		return Thresholds{}, err
	}
	return th, nil
}

// Validate checks that thresholds are usable by the rules.
func (t Thresholds) Validate() error {
	if t.RecentWindow < 1 {
		return fmt.Errorf("recent_window must be at least 1 (received %d)", t.RecentWindow)
	}
	if t.ProgressWindow < 1 {
		return fmt.Errorf("progress_window must be at least 1 (received %d)", t.ProgressWindow)
	}
	if t.ProgressMinRecords < 2*t.ProgressWindow {
		return fmt.Errorf("progress_min_records must be at least twice progress_window (received %d)", t.ProgressMinRecords)
	}
	if t.ActivityQuantile < 0 || t.ActivityQuantile > 1 {
		return fmt.Errorf("activity_quantile must be between 0 and 1 (received %.3f)", t.ActivityQuantile)
	}
	for name, p := range map[string]float64{
		"sleep_drop_penalty": t.SleepDropPenalty,
		"hr_rise_penalty":    t.HRRisePenalty,
		"stress_penalty":     t.StressPenalty,
		"activity_penalty":   t.ActivityPenalty,
		"mood_drop_penalty":  t.MoodDropPenalty,
	} {
		if p < 0 {
			return fmt.Errorf("%s must not be negative (received %.3f)", name, p)
		}
	}
	if t.HardSignalMin < 0 || t.HardSignalMin > 3 {
		return fmt.Errorf("hard_signal_min must be between 0 and 3 (received %d)", t.HardSignalMin)
	}
	return nil
}
