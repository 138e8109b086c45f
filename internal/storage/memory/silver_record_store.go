package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// SilverRecordStore is an in-memory implementation of storage.SilverRecordStore.
type SilverRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SilverRecord // keyed by (market_id, date, version)
}

// NewSilverRecordStore creates a new in-memory silver record store.
func NewSilverRecordStore() *SilverRecordStore {
	return &SilverRecordStore{data: make(map[string]*domain.SilverRecord)}
}

// Compile-time interface check.
var _ storage.SilverRecordStore = (*SilverRecordStore)(nil)

func silverKey(marketID string, date domain.Date, version string) string {
	return fmt.Sprintf("%s|%s|%s", marketID, date.String(), version)
}

// InsertBulk adds records atomically. Fails the whole batch on duplicates.
func (s *SilverRecordStore) InsertBulk(_ context.Context, records []*domain.SilverRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.MarketID == "" || r.Version == "" {
			return storage.ErrInvalidInput
		}
		key := silverKey(r.MarketID, r.Date, r.Version)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		recordCopy := *r
		s.data[silverKey(r.MarketID, r.Date, r.Version)] = &recordCopy
	}
	return nil
}

// GetByMarket retrieves all records for a market and version, ordered by date ASC.
func (s *SilverRecordStore) GetByMarket(_ context.Context, marketID, version string) ([]*domain.SilverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SilverRecord
	for _, r := range s.data {
		if r.MarketID == marketID && r.Version == version {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

// GetByDateRange retrieves records with date in [start, end], ordered by date ASC.
func (s *SilverRecordStore) GetByDateRange(_ context.Context, marketID, version string, start, end domain.Date) ([]*domain.SilverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SilverRecord
	for _, r := range s.data {
		if r.MarketID == marketID && r.Version == version && r.Date >= start && r.Date <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}
