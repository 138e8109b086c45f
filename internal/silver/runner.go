package silver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/normalization"
	"mandi-feature-lab/internal/storage"
)

// Runner builds and stores one market's Silver tables from normalized
// partials. Steps per market:
//  1. Sort partials by canonical order
//  2. Merge duplicates per key (median)
//  3. Fill short date gaps (weather only)
//  4. Assign quality flags and imputed fractions
//  5. Store records and price points
type Runner struct {
	silverStore storage.SilverRecordStore
	priceStore  storage.PricePointStore
	version     string
	maxGapDays  int
	quality     QualityConfig
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	SilverStore storage.SilverRecordStore
	PriceStore  storage.PricePointStore
	Version     string        // transformation version stamped on every record
	MaxGapDays  int           // 0 selects DefaultMaxGapDays
	Quality     QualityConfig // zero value selects DefaultQualityConfig
}

// NewRunner creates a silver build runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.MaxGapDays <= 0 {
		opts.MaxGapDays = DefaultMaxGapDays
	}
	if opts.Quality.WindowDays <= 0 {
		opts.Quality = DefaultQualityConfig()
	}
	return &Runner{
		silverStore: opts.SilverStore,
		priceStore:  opts.PriceStore,
		version:     opts.Version,
		maxGapDays:  opts.MaxGapDays,
		quality:     opts.Quality,
	}
}

// BuildResult reports what one market's silver build produced.
type BuildResult struct {
	Records        []*domain.SilverRecord
	PricePoints    []*domain.PricePoint
	Imputed        int  // synthetic records emitted
	GapTooLong     int  // missing dates left absent
	RecordsSkipped bool // record cohort already stored at this version
	PricesSkipped  bool // price cohort already stored at this version
}

// BuildMarket derives and stores the Silver tables for a single market.
// All partials must belong to the same market. The build is a pure
// function of its inputs and the configured version; the store insert
// is the only side effect.
//
// Duplicate keys are handled per table: an already-stored record cohort
// does not block the price insert, and vice versa, so a run that failed
// between the two inserts recovers on re-run. Skipped tables are
// reported on the result rather than returned as errors.
func (r *Runner) BuildMarket(
	ctx context.Context,
	weather []*normalization.WeatherPartial,
	prices []*normalization.PricePartial,
) (*BuildResult, error) {
	records, imputed, gapTooLong := r.buildWeather(weather)
	points := r.buildPrices(prices)

	result := &BuildResult{
		Records:     records,
		PricePoints: points,
		Imputed:     imputed,
		GapTooLong:  gapTooLong,
	}

	if len(records) > 0 {
		switch err := r.silverStore.InsertBulk(ctx, records); {
		case errors.Is(err, storage.ErrDuplicateKey):
			result.RecordsSkipped = true
		case err != nil:
			return nil, fmt.Errorf("insert silver records: %w", err)
		}
	}
	if len(points) > 0 {
		switch err := r.priceStore.InsertBulk(ctx, points); {
		case errors.Is(err, storage.ErrDuplicateKey):
			result.PricesSkipped = true
		case err != nil:
			return nil, fmt.Errorf("insert price points: %w", err)
		}
	}

	return result, nil
}

// buildWeather merges, imputes and flags one market's weather partials.
func (r *Runner) buildWeather(weather []*normalization.WeatherPartial) ([]*domain.SilverRecord, int, int) {
	if len(weather) == 0 {
		return nil, 0, 0
	}

	normalization.SortWeatherPartials(weather)

	var merged []*domain.SilverRecord
	start := 0
	for i := 1; i <= len(weather); i++ {
		if i == len(weather) || weather[i].Date != weather[start].Date {
			merged = append(merged, MergeWeather(weather[start:i], r.version))
			start = i
		}
	}

	imputed := ImputeGaps(merged, r.maxGapDays, r.version)
	FlagQuality(imputed.Records, r.quality)

	return imputed.Records, imputed.Imputed, imputed.GapTooLong
}

// buildPrices merges one market's price partials per
// (commodity, date, source) key. Prices are never gap-imputed: a missing
// price stays missing and surfaces as a null label downstream.
func (r *Runner) buildPrices(prices []*normalization.PricePartial) []*domain.PricePoint {
	if len(prices) == 0 {
		return nil
	}

	normalization.SortPricePartials(prices)

	var points []*domain.PricePoint
	start := 0
	samePriceKey := func(a, b *normalization.PricePartial) bool {
		return a.Commodity == b.Commodity && a.Date == b.Date && a.SourceID == b.SourceID
	}
	for i := 1; i <= len(prices); i++ {
		if i == len(prices) || !samePriceKey(prices[i], prices[start]) {
			points = append(points, MergePrice(prices[start:i], r.version))
			start = i
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Date != points[j].Date {
			return points[i].Date < points[j].Date
		}
		if points[i].Commodity != points[j].Commodity {
			return points[i].Commodity < points[j].Commodity
		}
		return points[i].SourceID < points[j].SourceID
	})

	return points
}
