// Package iocache is for persisting derived artifacts: the score cache and the assessment history.
package iocache

import (
	"sync"

	"github.com/careai/careai/internal/contract"
)

// CacheStoreManager manages the score cache and the assessment store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	score        contract.CacheStore
	assessment   contract.AssessmentStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetScoreStore returns the anomaly score CacheStore.
func (mgr *CacheStoreManager) GetScoreStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.score
}

// GetAssessmentStore returns the AssessmentStore.
func (mgr *CacheStoreManager) GetAssessmentStore() contract.AssessmentStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.assessment
}
