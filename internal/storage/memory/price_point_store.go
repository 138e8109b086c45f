package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// PricePointStore is an in-memory implementation of storage.PricePointStore.
type PricePointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePoint // keyed by (market, commodity, date, source, version)
}

// NewPricePointStore creates a new in-memory price point store.
func NewPricePointStore() *PricePointStore {
	return &PricePointStore{data: make(map[string]*domain.PricePoint)}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

func priceKey(p *domain.PricePoint) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", p.MarketID, p.Commodity, p.Date.String(), p.SourceID, p.Version)
}

// InsertBulk adds points atomically. Fails the whole batch on duplicates.
func (s *PricePointStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.MarketID == "" || p.Version == "" {
			return storage.ErrInvalidInput
		}
		key := priceKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[priceKey(p)] = &pointCopy
	}
	return nil
}

// GetByMarketCommodity retrieves all points for one market, commodity and
// version, ordered by (date, source_id) ASC.
func (s *PricePointStore) GetByMarketCommodity(_ context.Context, marketID, commodity, version string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if p.MarketID == marketID && p.Commodity == commodity && p.Version == version {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].SourceID < result[j].SourceID
	})
	return result, nil
}
