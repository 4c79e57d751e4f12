// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/careai/careai/schema"
)

// CacheManager defines the interface for managing the score cache and assessment history.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetScoreStore() CacheStore
	GetAssessmentStore() AssessmentStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AssessmentStore defines the interface for tracking triage runs and storing assessments.
type AssessmentStore interface {
	// BeginRun creates a new triage run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the triage run with completion data
	EndRun(runID int64, endTime time.Time, totalPatients, highRiskPatients int) error

	// RecordAssessment stores the assessment of one patient for a run
	RecordAssessment(runID int64, assessedAt time.Time, assessment schema.RiskAssessment) error

	// GetStatus returns status information about the assessment store
	GetStatus() (schema.StoreStatus, error)

	// GetAllRuns returns every triage run, oldest first
	GetAllRuns() ([]schema.TriageRunRecord, error)

	// GetAllAssessments returns every stored assessment, ordered by run and patient
	GetAllAssessments() ([]schema.AssessmentRecord, error)

	// Close closes the underlying connection
	Close() error
}
