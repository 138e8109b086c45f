// Package silver builds canonical daily records from normalized partials:
// duplicate merge, bounded gap imputation, and quality flagging.
package silver

import (
	"sort"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/normalization"
)

// mergeTolerance treats contributing values as identical when they agree
// this closely, short-circuiting the median.
const mergeTolerance = 1e-9

// MergeWeather collapses all partials sharing one (market, date) key into a
// single record. Numeric fields take the median over the full contributing
// set, recomputed from scratch so the result never depends on arrival
// order. Lineage is the union of contributing row ids.
func MergeWeather(partials []*normalization.WeatherPartial, version string) *domain.SilverRecord {
	if len(partials) == 0 {
		return nil
	}

	rec := &domain.SilverRecord{
		MarketID: partials[0].MarketID,
		Date:     partials[0].Date,
		Flag:     domain.QualityGood,
		Version:  version,
		Lineage:  domain.NewLineage(),
	}
	for _, p := range partials {
		rec.Lineage.Add(p.RowID)
	}

	rec.TempMeanC = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.TempMeanC })
	rec.TempMaxC = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.TempMaxC })
	rec.TempMinC = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.TempMinC })
	rec.PrecipMm = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.PrecipMm })
	rec.HumidityPct = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.HumidityPct })
	rec.WindMs = mergeField(partials, func(p *normalization.WeatherPartial) *float64 { return p.WindMs })

	return rec
}

// MergePrice collapses all partials sharing one
// (market, commodity, date, source) key into a single price point.
func MergePrice(partials []*normalization.PricePartial, version string) *domain.PricePoint {
	if len(partials) == 0 {
		return nil
	}

	point := &domain.PricePoint{
		MarketID:  partials[0].MarketID,
		Commodity: partials[0].Commodity,
		Date:      partials[0].Date,
		SourceID:  partials[0].SourceID,
		Version:   version,
		Lineage:   domain.NewLineage(),
	}
	for _, p := range partials {
		point.Lineage.Add(p.RowID)
	}

	point.MinInrKg = mergePriceField(partials, func(p *normalization.PricePartial) *float64 { return p.MinInrKg })
	point.ModalInrKg = mergePriceField(partials, func(p *normalization.PricePartial) *float64 { return p.ModalInrKg })
	point.MaxInrKg = mergePriceField(partials, func(p *normalization.PricePartial) *float64 { return p.MaxInrKg })

	return point
}

func mergeField(partials []*normalization.WeatherPartial, get func(*normalization.WeatherPartial) *float64) *float64 {
	var values []float64
	for _, p := range partials {
		if v := get(p); v != nil {
			values = append(values, *v)
		}
	}
	return mergeValues(values)
}

func mergePriceField(partials []*normalization.PricePartial, get func(*normalization.PricePartial) *float64) *float64 {
	var values []float64
	for _, p := range partials {
		if v := get(p); v != nil {
			values = append(values, *v)
		}
	}
	return mergeValues(values)
}

// mergeValues reduces the contributing values for one field.
// All values within tolerance of each other -> the shared value.
// Otherwise the median, robust to single-source outliers.
func mergeValues(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	allAgree := true
	for _, v := range values[1:] {
		if diff := v - values[0]; diff > mergeTolerance || diff < -mergeTolerance {
			allAgree = false
			break
		}
	}
	if allAgree {
		v := values[0]
		return &v
	}

	m := median(values)
	return &m
}

// median computes the median over a copy of the values. Even cardinality
// takes the mean of the two middle values.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
