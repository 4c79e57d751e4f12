// Package schema has the records, assessments and enums shared by all parts of careai.
package schema

import "time"

// Record is one measurement day for one patient.
type Record struct {
	PatientID       string    `json:"patient_id"`
	Date            time.Time `json:"date"`
	SleepHours      float64   `json:"sleep_hours"`
	ActivityLevel   float64   `json:"activity_level"`
	MoodScore       float64   `json:"mood_score"`
	TherapyAttended float64   `json:"therapy_attended"` // 0 or 1
	HeartRate       float64   `json:"heart_rate"`
	StressLevel     float64   `json:"stress_level"`
}

// Series is the ordered measurement history of one patient, ascending by date.
type Series []Record

// DeviationSummary holds the trailing-window flags used for classification and explanation.
type DeviationSummary struct {
	SleepDrop     bool `json:"sleep_drop"`
	LowActivity   bool `json:"low_activity"`
	LowMood       bool `json:"low_mood"`
	HighHR        bool `json:"high_hr"`
	HighStress    bool `json:"high_stress"`
	MissedTherapy bool `json:"missed_therapy"`
}

// Insight is a risk tier with its nurse-facing explanation.
type Insight struct {
	Tier Tier   `json:"tier"`
	Text string `json:"insight"`
}

// RiskAssessment is the engine output for one patient.
type RiskAssessment struct {
	PatientID     string           `json:"patient_id"`
	RiskScore     float64          `json:"risk_score"`
	Progress      bool             `json:"progress"`
	Summary       DeviationSummary `json:"summary"`
	Insight       Insight          `json:"insight"`
	Records       int              `json:"records"`
	LastDate      time.Time        `json:"last_date"`
	AnomalyFitted bool             `json:"anomaly_fitted"`
}

// WindowStats are the baseline and trailing-window averages that drive the deviation rules.
type WindowStats struct {
	BaselineSleep  float64 `json:"baseline_sleep"`
	BaselineMood   float64 `json:"baseline_mood"`
	BaselineHR     float64 `json:"baseline_heart_rate"`
	RecentSleep    float64 `json:"recent_sleep"`
	RecentMood     float64 `json:"recent_mood"`
	RecentHR       float64 `json:"recent_heart_rate"`
	RecentStress   float64 `json:"recent_stress"`
	RecentActivity float64 `json:"recent_activity"`
	RecentTherapy  float64 `json:"recent_therapy_sessions"`
	ActivityQ25    float64 `json:"activity_q25"`
}

// PatientDetail is an assessment with the window statistics behind it.
type PatientDetail struct {
	RiskAssessment
	Stats WindowStats `json:"stats"`
}

// PatientOverview summarizes the data available for one patient.
type PatientOverview struct {
	PatientID      string    `json:"patient_id"`
	Records        int       `json:"records"`
	FirstDate      time.Time `json:"first_date"`
	LastDate       time.Time `json:"last_date"`
	DuplicateDates int       `json:"duplicate_dates"`
}

// TriageOutput is the result of a batch triage run.
type TriageOutput struct {
	Assessments []RiskAssessment `json:"assessments"` // input order, not sorted
	HighRisk    []RiskAssessment `json:"high_risk"`   // High tier, most urgent first
	Skipped     []string         `json:"skipped"`     // patients below the minimum record count
}
