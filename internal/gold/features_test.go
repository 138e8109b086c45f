package gold

import (
	"math"
	"testing"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/idhash"
)

func f(v float64) *float64 { return &v }

// silverSeries builds n contiguous GOOD records starting at startDate.
// temp rises by 1 each day from 20; precip is 0 except where rainDays says.
func silverSeries(n int, startDate string, rainDays map[int]float64) []*domain.SilverRecord {
	start := domain.MustDate(startDate)
	records := make([]*domain.SilverRecord, 0, n)
	for i := 0; i < n; i++ {
		precip := 0.0
		if v, ok := rainDays[i]; ok {
			precip = v
		}
		records = append(records, &domain.SilverRecord{
			MarketID:    "m1",
			Date:        start + domain.Date(i),
			TempMeanC:   f(20.0 + float64(i)),
			PrecipMm:    f(precip),
			HumidityPct: f(60.0),
			Flag:        domain.QualityGood,
			Version:     "silver_v1",
			Lineage:     domain.NewLineage("row"),
		})
	}
	return records
}

func pricePoint(date string, source domain.SourceID, modal float64) *domain.PricePoint {
	return &domain.PricePoint{
		MarketID:   "m1",
		Commodity:  "wheat",
		Date:       domain.MustDate(date),
		SourceID:   source,
		ModalInrKg: f(modal),
		Version:    "silver_v1",
		Lineage:    domain.NewLineage("p_row"),
	}
}

func testConfig() Config {
	return DefaultConfig("silver_v1", "gold_v1")
}

func TestComputeFeatures_Lags(t *testing.T) {
	records := silverSeries(10, "2025-06-01", map[int]float64{2: 5.0})

	rows := ComputeFeatures(records, nil, "wheat", testConfig())
	if len(rows) != 10 {
		t.Fatalf("Expected one row per silver date, got %d", len(rows))
	}

	// Day index 3 (2025-06-04): lag-1 is day 2's precip.
	if rows[3].RainLag1d == nil || *rows[3].RainLag1d != 5.0 {
		t.Errorf("Expected rain_lag_1d 5.0, got %v", rows[3].RainLag1d)
	}
	if rows[3].TempMeanLag1d == nil || *rows[3].TempMeanLag1d != 22.0 {
		t.Errorf("Expected temp_mean_lag_1d 22.0, got %v", rows[3].TempMeanLag1d)
	}

	// First row has no history at all.
	if rows[0].RainLag1d != nil || rows[0].TempMeanLag1d != nil {
		t.Error("First row must have nil lags, not fabricated values")
	}
}

func TestComputeFeatures_CumulativeRequiresFullWindow(t *testing.T) {
	records := silverSeries(10, "2025-06-01", map[int]float64{3: 2.0, 5: 4.0})

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	// Day 6 has 7 full trailing days [0..6]: rain there is 2+4.
	if rows[6].RainCum7d == nil || *rows[6].RainCum7d != 6.0 {
		t.Errorf("Expected rain_cum_7d 6.0, got %v", rows[6].RainCum7d)
	}
	// Day 5 has only 6 trailing days: null, never a truncated sum.
	if rows[5].RainCum7d != nil {
		t.Errorf("Expected nil for incomplete window, got %v", *rows[5].RainCum7d)
	}
	// 30-day window never fills in a 10-day series.
	if rows[9].RainCum30d != nil {
		t.Error("Expected nil rain_cum_30d with only 10 days of history")
	}
}

func TestComputeFeatures_CumulativeRejectsMidWindowGap(t *testing.T) {
	records := silverSeries(10, "2025-06-01", nil)
	// Remove day 4 to punch a hole in the series.
	records = append(records[:4], records[5:]...)

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	// The last row's trailing 7 days include the hole.
	last := rows[len(rows)-1]
	if last.RainCum7d != nil {
		t.Error("Window containing a missing day must reject with nil")
	}
}

func TestComputeFeatures_RollingMeanStd(t *testing.T) {
	records := silverSeries(10, "2025-06-01", nil)

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	// Day 6: temps 20..26, mean 23, sample std of 7 consecutive ints = sqrt(28/6).
	if rows[6].TempRollMean7d == nil || *rows[6].TempRollMean7d != 23.0 {
		t.Errorf("Expected temp_roll_mean_7d 23.0, got %v", rows[6].TempRollMean7d)
	}
	wantStd := math.Sqrt(28.0 / 6.0)
	if rows[6].TempRollStd7d == nil || math.Abs(*rows[6].TempRollStd7d-wantStd) > 1e-12 {
		t.Errorf("Expected temp_roll_std_7d %v, got %v", wantStd, rows[6].TempRollStd7d)
	}

	// Day 5: window extends before the series start.
	if rows[5].TempRollMean7d != nil {
		t.Error("Rolling window before history start must be nil")
	}
}

func TestComputeFeatures_DaysSinceRain(t *testing.T) {
	records := silverSeries(10, "2025-06-01", map[int]float64{2: 3.0})

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	if rows[2].DaysSinceRain == nil || *rows[2].DaysSinceRain != 0 {
		t.Errorf("Rain day itself should report 0, got %v", rows[2].DaysSinceRain)
	}
	if rows[7].DaysSinceRain == nil || *rows[7].DaysSinceRain != 5 {
		t.Errorf("Expected 5 days since rain, got %v", rows[7].DaysSinceRain)
	}
	// Before any rain: unbounded.
	if rows[1].DaysSinceRain != nil {
		t.Errorf("Expected nil before first rain event, got %v", *rows[1].DaysSinceRain)
	}
}

func TestComputeFeatures_RainBelowThresholdIgnored(t *testing.T) {
	records := silverSeries(10, "2025-06-01", map[int]float64{2: 0.4}) // below 1.0 mm

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	if rows[5].DaysSinceRain != nil {
		t.Error("Drizzle below threshold must not count as a rain event")
	}
}

func TestComputeFeatures_CalendarEncodings(t *testing.T) {
	records := silverSeries(1, "2025-01-01", nil)

	rows := ComputeFeatures(records, nil, "wheat", testConfig())

	row := rows[0]
	if row.DayOfYear != 1 {
		t.Errorf("Expected day_of_year 1, got %d", row.DayOfYear)
	}
	angle := 2 * math.Pi * 1 / 365.25
	if math.Abs(row.DoySin-math.Sin(angle)) > 1e-12 || math.Abs(row.DoyCos-math.Cos(angle)) > 1e-12 {
		t.Errorf("Calendar encoding mismatch: sin=%v cos=%v", row.DoySin, row.DoyCos)
	}
}

func TestComputeFeatures_LineageCoversWindowAndPrices(t *testing.T) {
	records := silverSeries(3, "2025-06-01", nil)
	prices := []*domain.PricePoint{
		pricePoint("2025-06-03", domain.SourceAgmarknet, 24.0),
		pricePoint("2025-06-10", domain.SourceAgmarknet, 25.0),
	}

	rows := ComputeFeatures(records, prices, "wheat", testConfig())
	last := rows[2] // 2025-06-03

	for _, r := range records {
		id := idhash.ComputeSilverID(r.MarketID, r.Date, r.Version)
		if !last.Lineage.Contains(id) {
			t.Errorf("Lineage missing silver id for %s", r.Date)
		}
	}
	priceID := idhash.ComputePriceID("m1", "wheat", domain.MustDate("2025-06-03"), domain.SourceAgmarknet, "silver_v1")
	futureID := idhash.ComputePriceID("m1", "wheat", domain.MustDate("2025-06-10"), domain.SourceAgmarknet, "silver_v1")
	if !last.Lineage.Contains(priceID) || !last.Lineage.Contains(futureID) {
		t.Error("Lineage must reference both price points the label consumed")
	}
}

func TestComputeFeatures_Deterministic(t *testing.T) {
	records := silverSeries(40, "2025-05-01", map[int]float64{10: 8.0, 25: 2.5})
	prices := []*domain.PricePoint{
		pricePoint("2025-05-20", domain.SourceAgmarknet, 24.0),
		pricePoint("2025-05-27", domain.SourceENAM, 26.4),
	}

	a := ComputeFeatures(records, prices, "wheat", testConfig())
	b := ComputeFeatures(records, prices, "wheat", testConfig())

	if len(a) != len(b) {
		t.Fatalf("Row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Lineage.String() != b[i].Lineage.String() {
			t.Errorf("Lineage differs between runs at index %d", i)
		}
	}
}
