// Package gold derives model-ready feature rows and forward-looking labels
// from the canonical Silver tables. Every feature at date t is computed
// from records dated <= t; only the label may look ahead, and never beyond
// t plus the configured horizon.
package gold

import (
	"math"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/idhash"
)

// Config fixes the feature schema parameters. HorizonDays and the window
// lengths are part of the feature version: changing them requires a bump.
type Config struct {
	SilverVersion   string  // silver cohort consumed
	FeatureVersion  string  // version stamped on emitted rows
	HorizonDays     int     // label look-ahead, default 7
	RainThresholdMm float64 // precipitation counting as a rain event
}

// DefaultConfig returns the standard gold schema parameters.
func DefaultConfig(silverVersion, featureVersion string) Config {
	return Config{
		SilverVersion:   silverVersion,
		FeatureVersion:  featureVersion,
		HorizonDays:     7,
		RainThresholdMm: 1.0,
	}
}

// Window lengths used by the fixed feature schema.
const (
	shortWindowDays = 7
	longWindowDays  = 30
)

// ComputeFeatures derives one GoldFeatureRow per silver date for a single
// market. records must be the chronologically ordered silver sequence;
// prices the market's canonical price points across all sources.
// The computation is a pure function of its inputs and the config.
func ComputeFeatures(
	records []*domain.SilverRecord,
	prices []*domain.PricePoint,
	commodity string,
	cfg Config,
) []*domain.GoldFeatureRow {
	if len(records) == 0 {
		return nil
	}

	byDate := make(map[domain.Date]*domain.SilverRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}
	firstDate := records[0].Date

	priceSeries := NewPriceSeries(prices, commodity)

	rows := make([]*domain.GoldFeatureRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, computeRow(r, byDate, firstDate, priceSeries, commodity, cfg))
	}
	return rows
}

func computeRow(
	rec *domain.SilverRecord,
	byDate map[domain.Date]*domain.SilverRecord,
	firstDate domain.Date,
	prices *PriceSeries,
	commodity string,
	cfg Config,
) *domain.GoldFeatureRow {
	t := rec.Date

	row := &domain.GoldFeatureRow{
		MarketID:       rec.MarketID,
		Date:           t,
		Commodity:      commodity,
		PctImputed30d:  rec.PctImputed,
		FeatureVersion: cfg.FeatureVersion,
		Lineage:        domain.NewLineage(),
	}

	// Weather lags: exact day, missing if absent, never imputed here.
	row.RainLag1d = lagValue(byDate, t, 1, precipOf)
	row.RainLag7d = lagValue(byDate, t, 7, precipOf)
	row.TempMeanLag1d = lagValue(byDate, t, 1, tempMeanOf)

	// Cumulative windows: every day must be present (real or imputed).
	row.RainCum7d = cumWindow(byDate, t, shortWindowDays, precipOf)
	row.RainCum30d = cumWindow(byDate, t, longWindowDays, precipOf)

	// Rolling windows: available days only, but the window must lie fully
	// inside the loaded history.
	row.TempRollMean7d, row.TempRollStd7d = rollWindow(byDate, t, shortWindowDays, firstDate, tempMeanOf)
	row.TempRollMean30d, _ = rollWindow(byDate, t, longWindowDays, firstDate, tempMeanOf)
	row.HumidityRollMean7d, _ = rollWindow(byDate, t, shortWindowDays, firstDate, humidityOf)

	row.DaysSinceRain = daysSinceRain(byDate, t, firstDate, cfg.RainThresholdMm)

	// Calendar encodings, pure functions of the date.
	row.DayOfYear = t.DayOfYear()
	angle := 2 * math.Pi * float64(row.DayOfYear) / 365.25
	row.DoySin = math.Sin(angle)
	row.DoyCos = math.Cos(angle)

	// Price features from the fallback-assembled series.
	row.PriceLag1d = prices.At(t - 1)
	row.PriceLag7d = prices.At(t - 7)
	row.PriceRollMean7d, row.PriceRollStd7d = prices.RollWindow(t, shortWindowDays)
	row.PriceInrKg = prices.At(t)

	row.TargetPctChange7d = ComputeLabel(prices, t, cfg.HorizonDays)

	attachLineage(row, rec, byDate, prices, cfg)
	return row
}

func precipOf(r *domain.SilverRecord) *float64   { return r.PrecipMm }
func tempMeanOf(r *domain.SilverRecord) *float64 { return r.TempMeanC }
func humidityOf(r *domain.SilverRecord) *float64 { return r.HumidityPct }

// lagValue returns the quantity exactly k days before t, nil if the day or
// the quantity is absent.
func lagValue(byDate map[domain.Date]*domain.SilverRecord, t domain.Date, k int, get func(*domain.SilverRecord) *float64) *float64 {
	r, ok := byDate[t-domain.Date(k)]
	if !ok {
		return nil
	}
	v := get(r)
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// cumWindow sums the quantity over the trailing n days [t-n+1, t].
// Any missing day or missing value rejects the window with nil.
func cumWindow(byDate map[domain.Date]*domain.SilverRecord, t domain.Date, n int, get func(*domain.SilverRecord) *float64) *float64 {
	var sum float64
	for d := t - domain.Date(n) + 1; d <= t; d++ {
		r, ok := byDate[d]
		if !ok {
			return nil
		}
		v := get(r)
		if v == nil {
			return nil
		}
		sum += *v
	}
	return &sum
}

// rollWindow computes the mean and sample std over the present days in
// [t-n+1, t]. The window must lie fully inside the loaded history
// (windowStart >= firstDate); otherwise both are nil rather than a value
// over a silently truncated window. Std needs at least two observations.
func rollWindow(byDate map[domain.Date]*domain.SilverRecord, t domain.Date, n int, firstDate domain.Date, get func(*domain.SilverRecord) *float64) (*float64, *float64) {
	windowStart := t - domain.Date(n) + 1
	if windowStart < firstDate {
		return nil, nil
	}

	var values []float64
	for d := windowStart; d <= t; d++ {
		if r, ok := byDate[d]; ok {
			if v := get(r); v != nil {
				values = append(values, *v)
			}
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

// daysSinceRain counts days since the most recent day at or before t whose
// precipitation reached the threshold. Nil when no such day exists in the
// loaded history (unbounded).
func daysSinceRain(byDate map[domain.Date]*domain.SilverRecord, t, firstDate domain.Date, thresholdMm float64) *int {
	for d := t; d >= firstDate; d-- {
		r, ok := byDate[d]
		if !ok {
			continue
		}
		if r.PrecipMm != nil && *r.PrecipMm >= thresholdMm {
			days := int(t - d)
			return &days
		}
	}
	return nil
}

// attachLineage records the silver window and price points the row read.
func attachLineage(row *domain.GoldFeatureRow, rec *domain.SilverRecord, byDate map[domain.Date]*domain.SilverRecord, prices *PriceSeries, cfg Config) {
	t := rec.Date

	// Silver ids over the longest trailing window actually consulted.
	for d := t - domain.Date(longWindowDays) + 1; d <= t; d++ {
		if r, ok := byDate[d]; ok {
			row.Lineage.Add(idhash.ComputeSilverID(r.MarketID, d, r.Version))
		}
	}

	// Price points at t and t+horizon, whichever sources supplied them.
	if id, ok := prices.PointID(t); ok {
		row.Lineage.Add(id)
	}
	if id, ok := prices.PointID(t + domain.Date(cfg.HorizonDays)); ok {
		row.Lineage.Add(id)
	}
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStd(values []float64, mean float64) float64 {
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
