package silver

import (
	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/idhash"
)

// DefaultMaxGapDays is the longest run of consecutive missing dates the
// imputer will fill. Longer gaps are left absent, not guessed.
const DefaultMaxGapDays = 2

// ImputeResult reports what the imputer did to one market's sequence.
type ImputeResult struct {
	Records    []*domain.SilverRecord // chronological, gaps filled where allowed
	Imputed    int                    // records synthesized
	GapTooLong int                    // missing dates left absent
}

// ImputeGaps fills short date gaps in a chronologically ordered per-market
// sequence of merged records. A missing date is filled only when the whole
// run of consecutive missing dates around it is <= maxGapDays. Continuous
// quantities are linearly interpolated between the bounding records;
// each synthetic record is flagged IMPUTED and its lineage is the union of
// both bounding records' lineage plus an imputed tag.
func ImputeGaps(records []*domain.SilverRecord, maxGapDays int, version string) ImputeResult {
	if maxGapDays <= 0 {
		maxGapDays = DefaultMaxGapDays
	}
	if len(records) < 2 {
		return ImputeResult{Records: records}
	}

	result := ImputeResult{Records: make([]*domain.SilverRecord, 0, len(records))}

	for i := 0; i < len(records)-1; i++ {
		left, right := records[i], records[i+1]
		result.Records = append(result.Records, left)

		gap := int(right.Date-left.Date) - 1
		if gap <= 0 {
			continue
		}
		if gap > maxGapDays {
			result.GapTooLong += gap
			continue
		}

		for d := left.Date + 1; d < right.Date; d++ {
			result.Records = append(result.Records, interpolate(left, right, d, version))
			result.Imputed++
		}
	}
	result.Records = append(result.Records, records[len(records)-1])

	return result
}

// interpolate builds one synthetic record at date d between two real
// bounding records.
func interpolate(left, right *domain.SilverRecord, d domain.Date, version string) *domain.SilverRecord {
	// Position of d within (left.Date, right.Date), in (0, 1).
	frac := float64(d-left.Date) / float64(right.Date-left.Date)

	rec := &domain.SilverRecord{
		MarketID: left.MarketID,
		Date:     d,
		Flag:     domain.QualityImputed,
		Version:  version,
		Lineage:  left.Lineage.Union(right.Lineage),
	}
	rec.Lineage.Add(idhash.ImputedTag(left.MarketID, d))

	rec.TempMeanC = lerp(left.TempMeanC, right.TempMeanC, frac)
	rec.TempMaxC = lerp(left.TempMaxC, right.TempMaxC, frac)
	rec.TempMinC = lerp(left.TempMinC, right.TempMinC, frac)
	rec.PrecipMm = lerp(left.PrecipMm, right.PrecipMm, frac)
	rec.HumidityPct = lerp(left.HumidityPct, right.HumidityPct, frac)
	rec.WindMs = lerp(left.WindMs, right.WindMs, frac)

	return rec
}

// lerp interpolates between two nullable values. Either side missing
// yields nil: a fabricated endpoint would be a guess, not an interpolation.
func lerp(a, b *float64, frac float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + (*b-*a)*frac
	return &v
}
