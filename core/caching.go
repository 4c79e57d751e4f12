package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careai/careai/core/algo"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// currentCacheVersion defines the version of the cached score schema
const currentCacheVersion = 1

// cacheTTL is how long a cached anomaly score stays valid.
const cacheTTL = 7 * 24 * time.Hour

// anomalyEntry is the cached anomaly contribution of one patient series.
type anomalyEntry struct {
	RawScore float64 `json:"raw_score"`
	Fitted   bool    `json:"fitted"`
}

// cachedAnomalyScore returns the anomaly contribution of a series, reusing a
// cached value when the series and model parameters are unchanged.
func cachedAnomalyScore(ctx context.Context, cfg *contract.Config, patientID string, series schema.Series) (anomalyEntry, error) {
	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil {
		store = mgr.GetScoreStore()
	}
	if store == nil {
		// Fallback to direct computation
		return computeAnomalyScore(cfg, patientID, series)
	}

	key := generateCacheKey(cfg, patientID, series)

	// Check for cache hit
	if entry, ok := checkCacheHit(store, key); ok {
		return entry, nil
	}

	// Cache miss: compute and store
	return computeAndStore(cfg, patientID, series, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) (anomalyEntry, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return anomalyEntry{}, false // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= cacheTTL {
			var entry anomalyEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				return entry, true // Cache hit
			}
		}
	}

	return anomalyEntry{}, false // Cache miss (stale or version mismatch)
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(cfg *contract.Config, patientID string, series schema.Series, store contract.CacheStore, key string) (anomalyEntry, error) {
	entry, err := computeAnomalyScore(cfg, patientID, series)
	if err != nil {
		return anomalyEntry{}, err
	}

	if data, err := json.Marshal(entry); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.Logger().Warn("score cache write failed", zap.String("patient_id", patientID), zap.Error(err))
		}
	}

	return entry, nil
}

// computeAnomalyScore fits a per-patient forest and averages its scores.
// Series shorter than cfg.MinFitSamples are not fitted and score zero.
func computeAnomalyScore(cfg *contract.Config, patientID string, series schema.Series) (anomalyEntry, error) {
	if len(series) < cfg.MinFitSamples {
		contract.Logger().Warn("too few records to fit anomaly model, using neutral score",
			zap.String("patient_id", patientID),
			zap.Int("records", len(series)),
			zap.Int("min_fit_samples", cfg.MinFitSamples))
		return anomalyEntry{RawScore: 0, Fitted: false}, nil
	}

	forest, err := algo.Fit(series, ForestOptions(cfg))
	if err != nil {
		return anomalyEntry{}, fmt.Errorf("fit anomaly model for %s: %w", patientID, err)
	}
	raw, err := AnomalyContribution(forest, series)
	if err != nil {
		return anomalyEntry{}, fmt.Errorf("score anomaly model for %s: %w", patientID, err)
	}
	return anomalyEntry{RawScore: raw, Fitted: true}, nil
}

// ForestOptions maps the configuration onto isolation forest options.
func ForestOptions(cfg *contract.Config) algo.Options {
	return algo.Options{
		Trees:         cfg.Trees,
		Contamination: cfg.Contamination,
		Seed:          cfg.Seed,
		MaxSamples:    algo.DefaultMaxSamples,
	}
}

// generateCacheKey creates a unique key from the patient, the last record
// date, the series contents and the model parameters.
func generateCacheKey(cfg *contract.Config, patientID string, series schema.Series) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:%d:%d:%d:%g:%d:%d",
		patientID,
		series.LastDate().Unix(),
		len(series),
		cfg.Trees,
		cfg.Contamination,
		cfg.Seed,
		cfg.MinFitSamples,
	)
	for _, r := range series {
		_, _ = fmt.Fprintf(h, "|%d:%v", r.Date.Unix(), r.Vector())
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
