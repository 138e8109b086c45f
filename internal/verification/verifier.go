// Package verification checks that stored cohorts can be reproduced.
// It re-runs the transformation from the same raw inputs into a scratch
// store and compares every field of every output record.
package verification

import (
	"math"

	"mandi-feature-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Outputs are
// deterministic, so this only absorbs serialization round-trips.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Key      string      // record key the divergence occurred in
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single market.
type VerificationResult struct {
	MarketID    string            // verified market
	Match       bool              // true if all records match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalMarkets     int                  // markets verified
	MatchedMarkets   int                  // markets that matched exactly
	DivergentMarkets int                  // markets with divergences
	Results          []VerificationResult // individual results
}

// CompareSilverRecords compares stored and replayed silver cohorts.
func CompareSilverRecords(stored, replayed []*domain.SilverRecord) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{
			Key:      "silver",
			Field:    "RecordCount",
			Expected: len(stored),
			Actual:   len(replayed),
		}}
	}

	var divergences []FieldDivergence
	for i := range stored {
		s, r := stored[i], replayed[i]
		key := s.MarketID + "/" + s.Date.String()

		divergences = appendDiff(divergences, key, "MarketID", s.MarketID, r.MarketID)
		divergences = appendDiff(divergences, key, "Date", s.Date, r.Date)
		divergences = appendPtrDiff(divergences, key, "TempMeanC", s.TempMeanC, r.TempMeanC)
		divergences = appendPtrDiff(divergences, key, "TempMaxC", s.TempMaxC, r.TempMaxC)
		divergences = appendPtrDiff(divergences, key, "TempMinC", s.TempMinC, r.TempMinC)
		divergences = appendPtrDiff(divergences, key, "PrecipMm", s.PrecipMm, r.PrecipMm)
		divergences = appendPtrDiff(divergences, key, "HumidityPct", s.HumidityPct, r.HumidityPct)
		divergences = appendPtrDiff(divergences, key, "WindMs", s.WindMs, r.WindMs)
		divergences = appendDiff(divergences, key, "Flag", s.Flag, r.Flag)
		if !floatEquals(s.PctImputed, r.PctImputed) {
			divergences = append(divergences, FieldDivergence{key, "PctImputed", s.PctImputed, r.PctImputed})
		}
		divergences = appendDiff(divergences, key, "Version", s.Version, r.Version)
		divergences = appendDiff(divergences, key, "Lineage", s.Lineage.String(), r.Lineage.String())
	}
	return divergences
}

// ComparePricePoints compares stored and replayed price cohorts.
func ComparePricePoints(stored, replayed []*domain.PricePoint) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{
			Key:      "prices",
			Field:    "RecordCount",
			Expected: len(stored),
			Actual:   len(replayed),
		}}
	}

	var divergences []FieldDivergence
	for i := range stored {
		s, r := stored[i], replayed[i]
		key := s.MarketID + "/" + s.Commodity + "/" + s.Date.String() + "/" + string(s.SourceID)

		divergences = appendDiff(divergences, key, "MarketID", s.MarketID, r.MarketID)
		divergences = appendDiff(divergences, key, "Commodity", s.Commodity, r.Commodity)
		divergences = appendDiff(divergences, key, "Date", s.Date, r.Date)
		divergences = appendDiff(divergences, key, "SourceID", s.SourceID, r.SourceID)
		divergences = appendPtrDiff(divergences, key, "MinInrKg", s.MinInrKg, r.MinInrKg)
		divergences = appendPtrDiff(divergences, key, "ModalInrKg", s.ModalInrKg, r.ModalInrKg)
		divergences = appendPtrDiff(divergences, key, "MaxInrKg", s.MaxInrKg, r.MaxInrKg)
		divergences = appendDiff(divergences, key, "Version", s.Version, r.Version)
		divergences = appendDiff(divergences, key, "Lineage", s.Lineage.String(), r.Lineage.String())
	}
	return divergences
}

// CompareGoldRows compares stored and replayed feature tables.
func CompareGoldRows(stored, replayed []*domain.GoldFeatureRow) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{
			Key:      "gold",
			Field:    "RecordCount",
			Expected: len(stored),
			Actual:   len(replayed),
		}}
	}

	var divergences []FieldDivergence
	for i := range stored {
		s, r := stored[i], replayed[i]
		key := s.MarketID + "/" + s.Date.String()

		divergences = appendDiff(divergences, key, "MarketID", s.MarketID, r.MarketID)
		divergences = appendDiff(divergences, key, "Date", s.Date, r.Date)
		divergences = appendDiff(divergences, key, "Commodity", s.Commodity, r.Commodity)
		divergences = appendPtrDiff(divergences, key, "RainLag1d", s.RainLag1d, r.RainLag1d)
		divergences = appendPtrDiff(divergences, key, "RainLag7d", s.RainLag7d, r.RainLag7d)
		divergences = appendPtrDiff(divergences, key, "TempMeanLag1d", s.TempMeanLag1d, r.TempMeanLag1d)
		divergences = appendPtrDiff(divergences, key, "RainCum7d", s.RainCum7d, r.RainCum7d)
		divergences = appendPtrDiff(divergences, key, "RainCum30d", s.RainCum30d, r.RainCum30d)
		divergences = appendPtrDiff(divergences, key, "TempRollMean7d", s.TempRollMean7d, r.TempRollMean7d)
		divergences = appendPtrDiff(divergences, key, "TempRollStd7d", s.TempRollStd7d, r.TempRollStd7d)
		divergences = appendPtrDiff(divergences, key, "TempRollMean30d", s.TempRollMean30d, r.TempRollMean30d)
		divergences = appendPtrDiff(divergences, key, "HumidityRollMean7d", s.HumidityRollMean7d, r.HumidityRollMean7d)
		divergences = appendPtrDiff(divergences, key, "PriceLag1d", s.PriceLag1d, r.PriceLag1d)
		divergences = appendPtrDiff(divergences, key, "PriceLag7d", s.PriceLag7d, r.PriceLag7d)
		divergences = appendPtrDiff(divergences, key, "PriceRollMean7d", s.PriceRollMean7d, r.PriceRollMean7d)
		divergences = appendPtrDiff(divergences, key, "PriceRollStd7d", s.PriceRollStd7d, r.PriceRollStd7d)
		divergences = appendIntPtrDiff(divergences, key, "DaysSinceRain", s.DaysSinceRain, r.DaysSinceRain)
		divergences = appendDiff(divergences, key, "DayOfYear", s.DayOfYear, r.DayOfYear)
		if !floatEquals(s.DoySin, r.DoySin) {
			divergences = append(divergences, FieldDivergence{key, "DoySin", s.DoySin, r.DoySin})
		}
		if !floatEquals(s.DoyCos, r.DoyCos) {
			divergences = append(divergences, FieldDivergence{key, "DoyCos", s.DoyCos, r.DoyCos})
		}
		if !floatEquals(s.PctImputed30d, r.PctImputed30d) {
			divergences = append(divergences, FieldDivergence{key, "PctImputed30d", s.PctImputed30d, r.PctImputed30d})
		}
		divergences = appendPtrDiff(divergences, key, "PriceInrKg", s.PriceInrKg, r.PriceInrKg)
		divergences = appendPtrDiff(divergences, key, "TargetPctChange7d", s.TargetPctChange7d, r.TargetPctChange7d)
		divergences = appendDiff(divergences, key, "FeatureVersion", s.FeatureVersion, r.FeatureVersion)
		divergences = appendDiff(divergences, key, "Lineage", s.Lineage.String(), r.Lineage.String())
	}
	return divergences
}

func appendDiff[T comparable](divs []FieldDivergence, key, field string, expected, actual T) []FieldDivergence {
	if expected != actual {
		divs = append(divs, FieldDivergence{key, field, expected, actual})
	}
	return divs
}

func appendPtrDiff(divs []FieldDivergence, key, field string, expected, actual *float64) []FieldDivergence {
	if !floatPtrEquals(expected, actual) {
		divs = append(divs, FieldDivergence{key, field, deref(expected), deref(actual)})
	}
	return divs
}

func appendIntPtrDiff(divs []FieldDivergence, key, field string, expected, actual *int) []FieldDivergence {
	if (expected == nil) != (actual == nil) || (expected != nil && *expected != *actual) {
		divs = append(divs, FieldDivergence{key, field, expected, actual})
	}
	return divs
}

func deref(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}
