// Package resolve maps raw location descriptors onto canonical markets.
// Resolution is a pure lookup against an immutable registry snapshot taken
// at run start, so concurrent runs never observe a registry changing mid-run.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// Registry is an immutable snapshot of the canonical market registry.
type Registry struct {
	byNorm  map[string]*domain.Market
	markets []*domain.Market
}

// Snapshot loads all markets from the store into an immutable snapshot.
func Snapshot(ctx context.Context, store storage.MarketStore) (*Registry, error) {
	markets, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot market registry: %w", err)
	}
	return NewRegistry(markets), nil
}

// NewRegistry builds a snapshot from the given markets.
func NewRegistry(markets []*domain.Market) *Registry {
	r := &Registry{
		byNorm:  make(map[string]*domain.Market, len(markets)),
		markets: make([]*domain.Market, 0, len(markets)),
	}
	for _, m := range markets {
		copied := *m
		if copied.NameNorm == "" {
			copied.NameNorm = NormalizeName(copied.Name)
		}
		r.markets = append(r.markets, &copied)
		r.byNorm[copied.NameNorm] = &copied
	}
	return r
}

// Len returns the number of registered markets.
func (r *Registry) Len() int {
	return len(r.markets)
}

// byName returns the market whose normalized name matches exactly.
func (r *Registry) byName(norm string) (*domain.Market, bool) {
	m, ok := r.byNorm[norm]
	return m, ok
}

// NormalizeName lowercases a place name and collapses every run of
// non-alphanumeric characters to a single underscore. Matches the
// normalization the Bronze layer applies to place_name_norm.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range strings.ToLower(strings.TrimSpace(name)) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '_' })
	return strings.Join(parts, "_")
}
