package memory

import (
	"context"
	"sort"
	"sync"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Market // keyed by market_id
}

// NewMarketStore creates a new in-memory market registry store.
func NewMarketStore() *MarketStore {
	return &MarketStore{data: make(map[string]*domain.Market)}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert registers a market. Returns ErrDuplicateKey if market_id exists.
func (s *MarketStore) Insert(_ context.Context, m *domain.Market) error {
	if m == nil || m.MarketID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.MarketID]; exists {
		return storage.ErrDuplicateKey
	}
	copied := *m
	s.data[m.MarketID] = &copied
	return nil
}

// GetByID retrieves a market. Returns ErrNotFound if absent.
func (s *MarketStore) GetByID(_ context.Context, marketID string) (*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[marketID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

// GetAll retrieves every registered market, ordered by market_id ASC.
func (s *MarketStore) GetAll(_ context.Context) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Market, 0, len(s.data))
	for _, m := range s.data {
		copied := *m
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MarketID < result[j].MarketID
	})
	return result, nil
}
