package schema

import "time"

// TriageRunRecord represents a row from the careai_triage_runs table.
type TriageRunRecord struct {
	RunID            int64
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int32
	TotalPatients    int32
	HighRiskPatients int32
	ConfigParams     *string
}

// AssessmentRecord represents a row from the careai_patient_assessments table.
type AssessmentRecord struct {
	RunID         int64
	PatientID     string
	AssessedAt    time.Time
	LastDate      time.Time
	Records       int32
	RiskScore     float64
	Progress      bool
	Tier          string
	Insight       string
	SleepDrop     bool
	LowActivity   bool
	LowMood       bool
	HighHR        bool
	HighStress    bool
	MissedTherapy bool
	AnomalyFitted bool
}

// NewAssessmentRecord flattens an assessment for storage.
func NewAssessmentRecord(runID int64, assessedAt time.Time, a RiskAssessment) AssessmentRecord {
	return AssessmentRecord{
		RunID:         runID,
		PatientID:     a.PatientID,
		AssessedAt:    assessedAt,
		LastDate:      a.LastDate,
		Records:       int32(a.Records),
		RiskScore:     a.RiskScore,
		Progress:      a.Progress,
		Tier:          string(a.Insight.Tier),
		Insight:       a.Insight.Text,
		SleepDrop:     a.Summary.SleepDrop,
		LowActivity:   a.Summary.LowActivity,
		LowMood:       a.Summary.LowMood,
		HighHR:        a.Summary.HighHR,
		HighStress:    a.Summary.HighStress,
		MissedTherapy: a.Summary.MissedTherapy,
		AnomalyFitted: a.AnomalyFitted,
	}
}
