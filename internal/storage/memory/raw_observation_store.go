// Package memory provides in-memory store implementations used by unit
// tests, fixtures, and the -use-memory pipeline mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// RawObservationStore is an in-memory implementation of storage.RawObservationStore.
type RawObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawObservation // keyed by row_id
}

// NewRawObservationStore creates a new in-memory raw observation store.
func NewRawObservationStore() *RawObservationStore {
	return &RawObservationStore{data: make(map[string]*domain.RawObservation)}
}

// Compile-time interface check.
var _ storage.RawObservationStore = (*RawObservationStore)(nil)

// Insert adds a raw observation. Returns ErrDuplicateKey if row_id exists.
func (s *RawObservationStore) Insert(_ context.Context, obs *domain.RawObservation) error {
	if obs == nil || obs.RowID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[obs.RowID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[obs.RowID] = copyRawObservation(obs)
	return nil
}

// InsertBulk adds multiple observations atomically.
func (s *RawObservationStore) InsertBulk(_ context.Context, obs []*domain.RawObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		if o == nil || o.RowID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[o.RowID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.RowID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.RowID] = struct{}{}
	}

	for _, o := range obs {
		s.data[o.RowID] = copyRawObservation(o)
	}
	return nil
}

// GetAll retrieves every observation, ordered by (date, row_id) ASC.
func (s *RawObservationStore) GetAll(_ context.Context) ([]*domain.RawObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RawObservation, 0, len(s.data))
	for _, o := range s.data {
		result = append(result, copyRawObservation(o))
	}
	sortRawObservations(result)
	return result, nil
}

// GetByDateRange retrieves observations with date in [start, end].
func (s *RawObservationStore) GetByDateRange(_ context.Context, start, end domain.Date) ([]*domain.RawObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawObservation
	for _, o := range s.data {
		if o.Date >= start && o.Date <= end {
			result = append(result, copyRawObservation(o))
		}
	}
	sortRawObservations(result)
	return result, nil
}

func sortRawObservations(obs []*domain.RawObservation) {
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].Date != obs[j].Date {
			return obs[i].Date < obs[j].Date
		}
		return obs[i].RowID < obs[j].RowID
	})
}

func copyRawObservation(o *domain.RawObservation) *domain.RawObservation {
	copied := *o
	if o.Lat != nil {
		v := *o.Lat
		copied.Lat = &v
	}
	if o.Lon != nil {
		v := *o.Lon
		copied.Lon = &v
	}
	if o.Vars != nil {
		copied.Vars = make(map[string]float64, len(o.Vars))
		for k, v := range o.Vars {
			copied.Vars[k] = v
		}
	}
	if o.Units != nil {
		copied.Units = make(map[string]string, len(o.Units))
		for k, v := range o.Units {
			copied.Units[k] = v
		}
	}
	return &copied
}
