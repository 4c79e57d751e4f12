package iocache

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetScoreStore implements the CacheManager interface.
func (m *MockCacheManager) GetScoreStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetAssessmentStore implements the CacheManager interface.
func (m *MockCacheManager) GetAssessmentStore() contract.AssessmentStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.AssessmentStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockAssessmentStore is a mock implementation of AssessmentStore for testing.
type MockAssessmentStore struct {
	mock.Mock
}

var _ contract.AssessmentStore = &MockAssessmentStore{} // Compile-time check

// BeginRun implements the AssessmentStore interface.
func (m *MockAssessmentStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the AssessmentStore interface.
func (m *MockAssessmentStore) EndRun(runID int64, endTime time.Time, totalPatients, highRiskPatients int) error {
	args := m.Called(runID, endTime, totalPatients, highRiskPatients)
	return args.Error(0)
}

// RecordAssessment implements the AssessmentStore interface.
func (m *MockAssessmentStore) RecordAssessment(runID int64, assessedAt time.Time, assessment schema.RiskAssessment) error {
	args := m.Called(runID, assessedAt, assessment)
	return args.Error(0)
}

// GetStatus implements the AssessmentStore interface.
func (m *MockAssessmentStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// GetAllRuns implements the AssessmentStore interface.
func (m *MockAssessmentStore) GetAllRuns() ([]schema.TriageRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.TriageRunRecord)
	return runs, args.Error(1)
}

// GetAllAssessments implements the AssessmentStore interface.
func (m *MockAssessmentStore) GetAllAssessments() ([]schema.AssessmentRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.AssessmentRecord)
	return records, args.Error(1)
}

// Close implements the AssessmentStore interface.
func (m *MockAssessmentStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
