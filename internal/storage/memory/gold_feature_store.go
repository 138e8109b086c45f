package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// GoldFeatureStore is an in-memory implementation of storage.GoldFeatureStore.
type GoldFeatureStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GoldFeatureRow // keyed by (market_id, date, feature_version)
}

// NewGoldFeatureStore creates a new in-memory gold feature store.
func NewGoldFeatureStore() *GoldFeatureStore {
	return &GoldFeatureStore{data: make(map[string]*domain.GoldFeatureRow)}
}

// Compile-time interface check.
var _ storage.GoldFeatureStore = (*GoldFeatureStore)(nil)

func goldKey(r *domain.GoldFeatureRow) string {
	return fmt.Sprintf("%s|%s|%s", r.MarketID, r.Date.String(), r.FeatureVersion)
}

// InsertBulk adds rows atomically. Fails the whole batch on duplicates.
func (s *GoldFeatureStore) InsertBulk(_ context.Context, rows []*domain.GoldFeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.MarketID == "" || r.FeatureVersion == "" {
			return storage.ErrInvalidInput
		}
		key := goldKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		rowCopy := *r
		s.data[goldKey(r)] = &rowCopy
	}
	return nil
}

// GetByMarket retrieves all rows for a market and feature version,
// ordered by date ASC.
func (s *GoldFeatureStore) GetByMarket(_ context.Context, marketID, featureVersion string) ([]*domain.GoldFeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GoldFeatureRow
	for _, r := range s.data {
		if r.MarketID == marketID && r.FeatureVersion == featureVersion {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}
