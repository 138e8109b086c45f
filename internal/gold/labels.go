package gold

import (
	"math"
	"sort"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/idhash"
)

// PriceSeries is the per-market canonical price series assembled by
// source-priority fallback: on each date the primary feed wins, otherwise
// the first fallback feed reporting on that exact date. Dates no feed
// covers have no value; they are never approximated.
type PriceSeries struct {
	byDate    map[domain.Date]*domain.PricePoint
	firstDate domain.Date
	hasData   bool
}

// NewPriceSeries assembles the fallback series for one commodity from a
// market's price points across all sources.
func NewPriceSeries(points []*domain.PricePoint, commodity string) *PriceSeries {
	s := &PriceSeries{byDate: make(map[domain.Date]*domain.PricePoint)}

	priority := make(map[domain.SourceID]int, len(domain.PriceSourcePriority))
	for i, src := range domain.PriceSourcePriority {
		priority[src] = i
	}

	// Sort deterministically before reduction so a malformed input with a
	// duplicated (date, source) key cannot flip the winner.
	sorted := make([]*domain.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Commodity == commodity && p.ModalInrKg != nil {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return priority[sorted[i].SourceID] < priority[sorted[j].SourceID]
	})

	for _, p := range sorted {
		existing, ok := s.byDate[p.Date]
		if ok && priority[existing.SourceID] <= priority[p.SourceID] {
			continue
		}
		s.byDate[p.Date] = p
		if !s.hasData || p.Date < s.firstDate {
			s.firstDate = p.Date
			s.hasData = true
		}
	}
	return s
}

// At returns the modal price on the exact date, nil if no feed reported.
func (s *PriceSeries) At(d domain.Date) *float64 {
	p, ok := s.byDate[d]
	if !ok {
		return nil
	}
	v := *p.ModalInrKg
	return &v
}

// PointID returns the deterministic id of the point serving date d.
func (s *PriceSeries) PointID(d domain.Date) (string, bool) {
	p, ok := s.byDate[d]
	if !ok {
		return "", false
	}
	return idhash.ComputePriceID(p.MarketID, p.Commodity, p.Date, p.SourceID, p.Version), true
}

// RollWindow computes mean and sample std of the series over the present
// days in [t-n+1, t], nil when the window extends before the first price.
func (s *PriceSeries) RollWindow(t domain.Date, n int) (*float64, *float64) {
	if !s.hasData {
		return nil, nil
	}
	windowStart := t - domain.Date(n) + 1
	if windowStart < s.firstDate {
		return nil, nil
	}

	var values []float64
	for d := windowStart; d <= t; d++ {
		if p, ok := s.byDate[d]; ok {
			values = append(values, *p.ModalInrKg)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}

	mean := meanOf(values)
	var stdPtr *float64
	if len(values) >= 2 {
		std := sampleStd(values, mean)
		stdPtr = &std
	}
	return &mean, stdPtr
}

// ComputeLabel returns the forward percentage change
// price[t+horizon]/price[t] - 1. Nil when either side is missing on its
// exact date, or when price[t] is zero (guarded, not raised).
func ComputeLabel(prices *PriceSeries, t domain.Date, horizonDays int) *float64 {
	now := prices.At(t)
	future := prices.At(t + domain.Date(horizonDays))
	if now == nil || future == nil {
		return nil
	}
	if *now == 0 || math.IsNaN(*now) {
		return nil
	}
	label := (*future / *now) - 1
	return &label
}
