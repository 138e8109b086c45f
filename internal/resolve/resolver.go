package resolve

import (
	"errors"
	"fmt"
	"math"

	"mandi-feature-lab/internal/domain"
)

// ErrUnresolvedEntity is returned when a raw location cannot be mapped to
// any registered market. Callers quarantine the record, never drop it.
var ErrUnresolvedEntity = errors.New("unresolved entity: location does not map to a registered market")

// DefaultMaxDistanceKm is the default radius for coordinate resolution.
const DefaultMaxDistanceKm = 25.0

// Resolver maps raw place names and coordinates onto market ids against a
// fixed registry snapshot. Identical input and snapshot always yield the
// same market id, across runs and machines.
type Resolver struct {
	registry      *Registry
	maxDistanceKm float64
}

// NewResolver creates a resolver over a registry snapshot.
// maxDistanceKm <= 0 selects DefaultMaxDistanceKm.
func NewResolver(registry *Registry, maxDistanceKm float64) *Resolver {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	return &Resolver{registry: registry, maxDistanceKm: maxDistanceKm}
}

// Resolve returns the market id for a raw observation's location.
// Exact normalized-name match wins; otherwise the nearest market within
// the configured radius is selected, ties broken by smaller market id.
func (r *Resolver) Resolve(obs *domain.RawObservation) (string, error) {
	if obs.PlaceName != "" {
		if m, ok := r.registry.byName(NormalizeName(obs.PlaceName)); ok {
			return m.MarketID, nil
		}
	}

	if obs.Lat != nil && obs.Lon != nil {
		if m, ok := r.nearest(*obs.Lat, *obs.Lon); ok {
			return m.MarketID, nil
		}
	}

	return "", fmt.Errorf("resolve %q (source %s): %w", obs.PlaceName, obs.SourceID, ErrUnresolvedEntity)
}

// nearest returns the closest registered market within maxDistanceKm.
// Equidistant markets resolve to the lexicographically smaller market id
// so the result never depends on registry iteration order.
func (r *Resolver) nearest(lat, lon float64) (*domain.Market, bool) {
	var best *domain.Market
	bestDist := math.Inf(1)

	for _, m := range r.registry.markets {
		d := HaversineKm(lat, lon, m.Lat, m.Lon)
		if d > r.maxDistanceKm {
			continue
		}
		switch {
		case d < bestDist:
			best, bestDist = m, d
		case d == bestDist && best != nil && m.MarketID < best.MarketID:
			best = m
		}
	}

	return best, best != nil
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180
	dLat := (lat2 - lat1) * deg
	dLon := (lon2 - lon1) * deg

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg)*math.Cos(lat2*deg)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
