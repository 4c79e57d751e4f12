package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/careai/careai/internal/iocache"
	"github.com/careai/careai/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cacheManagerWith(store *iocache.MockCacheStore) *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetScoreStore").Return(store)
	mgr.On("GetAssessmentStore").Return(nil)
	return mgr
}

func TestCachedAnomalyScoreHit(t *testing.T) {
	store := &iocache.MockCacheStore{}
	data, err := json.Marshal(anomalyEntry{RawScore: 0.5, Fitted: true})
	require.NoError(t, err)
	store.On("Get", mock.Anything).Return(data, currentCacheVersion, time.Now().Unix(), nil)

	detail, err := AssessPatient(quietContext(), testConfig(), "P1", makeSeries("P1", 12, nil), cacheManagerWith(store))
	require.NoError(t, err)

	assert.Equal(t, 0.5, detail.RiskScore)
	assert.True(t, detail.AnomalyFitted)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedAnomalyScoreMissStores(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
	}{
		{"not found", nil, 0, 0, errors.New("not found")},
		{"stale", []byte(`{"raw_score":0.5,"fitted":true}`), currentCacheVersion, time.Now().Add(-8 * 24 * time.Hour).Unix(), nil},
		{"old version", []byte(`{"raw_score":0.5,"fitted":true}`), currentCacheVersion + 1, time.Now().Unix(), nil},
		{"corrupt", []byte(`{not json`), currentCacheVersion, time.Now().Unix(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", mock.Anything).Return(tt.data, tt.version, tt.ts, tt.err)
			store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

			detail, err := AssessPatient(quietContext(), testConfig(), "P1", makeSeries("P1", 12, nil), cacheManagerWith(store))
			require.NoError(t, err)
			assert.Equal(t, 0.0, detail.RiskScore)
			store.AssertNumberOfCalls(t, "Set", 1)
		})
	}
}

func TestCachedAnomalyScoreSetFailureIsNotFatal(t *testing.T) {
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("read-only"))

	detail, err := AssessPatient(quietContext(), testConfig(), "H1", highRiskSeries("H1"), cacheManagerWith(store))
	require.NoError(t, err)
	assert.Equal(t, schema.HighTier, detail.Insight.Tier)
}

func TestCachedEntryRoundTrip(t *testing.T) {
	store := &iocache.MockCacheStore{}
	var stored []byte
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("not found")).Once()
	store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]byte) }).
		Return(nil)

	series := highRiskSeries("H1")
	first, err := AssessPatient(quietContext(), testConfig(), "H1", series, cacheManagerWith(store))
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	store.On("Get", mock.Anything).Return(stored, currentCacheVersion, time.Now().Unix(), nil)
	second, err := AssessPatient(quietContext(), testConfig(), "H1", series, cacheManagerWith(store))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateCacheKey(t *testing.T) {
	cfg := testConfig()
	series := highRiskSeries("H1")
	key := generateCacheKey(cfg, "H1", series)

	assert.Len(t, key, 64)
	assert.Equal(t, key, generateCacheKey(cfg, "H1", series))
	assert.NotEqual(t, key, generateCacheKey(cfg, "H2", series))
	assert.NotEqual(t, key, generateCacheKey(cfg, "H1", series[:9]))

	edited := append(schema.Series{}, series...)
	edited[0].MoodScore = 1
	assert.NotEqual(t, key, generateCacheKey(cfg, "H1", edited))

	other := testConfig()
	other.Seed = 7
	assert.NotEqual(t, key, generateCacheKey(other, "H1", series))
}

func TestForestOptions(t *testing.T) {
	opts := ForestOptions(testConfig())
	assert.Equal(t, 200, opts.Trees)
	assert.Equal(t, 0.12, opts.Contamination)
	assert.Equal(t, uint64(42), opts.Seed)
}
