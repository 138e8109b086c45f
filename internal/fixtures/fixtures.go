// Package fixtures seeds deterministic demo data for in-memory runs.
package fixtures

import (
	"context"
	"fmt"
	"math"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// fixtureDays is the length of each market's observation window. Long
// enough to produce 7-day and 30-day features and a tail of null labels.
const fixtureDays = 60

var fixtureStart = domain.MustDate("2024-06-01")

// Load populates the market registry and raw observation store with a
// reproducible demo dataset: three Madhya Pradesh mandis, daily weather
// with a couple of short gaps, and wheat prices from all three feeds.
func Load(ctx context.Context, marketStore storage.MarketStore, rawStore storage.RawObservationStore) error {
	if err := loadMarkets(ctx, marketStore); err != nil {
		return err
	}
	if err := loadWeather(ctx, rawStore); err != nil {
		return err
	}
	return loadPrices(ctx, rawStore)
}

var fixtureMarkets = []*domain.Market{
	{MarketID: "mkt_indore", Name: "Indore Mandi", State: "Madhya Pradesh", Lat: 22.7196, Lon: 75.8577},
	{MarketID: "mkt_dewas", Name: "Dewas Mandi", State: "Madhya Pradesh", Lat: 22.9676, Lon: 76.0534},
	{MarketID: "mkt_ujjain", Name: "Ujjain Mandi", State: "Madhya Pradesh", Lat: 23.1793, Lon: 75.7849},
}

func loadMarkets(ctx context.Context, store storage.MarketStore) error {
	for _, m := range fixtureMarkets {
		if err := store.Insert(ctx, m); err != nil {
			return fmt.Errorf("insert market %s: %w", m.MarketID, err)
		}
	}
	return nil
}

func loadWeather(ctx context.Context, store storage.RawObservationStore) error {
	var batch []*domain.RawObservation
	for mi, m := range fixtureMarkets {
		for i := 0; i < fixtureDays; i++ {
			// One two-day outage per market, at staggered offsets, so
			// the imputation path has something to fill.
			if i == 20+mi || i == 21+mi {
				continue
			}
			lat, lon := m.Lat, m.Lon
			batch = append(batch, &domain.RawObservation{
				RowID:       fmt.Sprintf("w_%s_%03d", m.MarketID, i),
				SourceID:    domain.SourceOpenMeteo,
				FileID:      fmt.Sprintf("openmeteo/%s.csv", m.MarketID),
				RecordIndex: i,
				PlaceName:   m.Name,
				Lat:         &lat,
				Lon:         &lon,
				Date:        fixtureStart + domain.Date(i),
				Vars: map[string]float64{
					"temperature_2m_mean": weatherTemp(mi, i),
					"precipitation_sum":   weatherRain(mi, i),
					"wind_speed_10m_mean": 11.0 + 2.0*math.Sin(float64(i)/5.0),
				},
				Units: map[string]string{
					"wind_speed_10m_mean": "kmh",
				},
			})
		}
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		return fmt.Errorf("insert weather: %w", err)
	}
	return nil
}

// weatherTemp follows a slow seasonal curve with a per-market offset.
func weatherTemp(market, day int) float64 {
	return 27.0 + float64(market) + 4.0*math.Sin(2.0*math.Pi*float64(day)/float64(fixtureDays))
}

// weatherRain delivers monsoon-ish bursts: a wet spell every nine days.
func weatherRain(market, day int) float64 {
	if (day+market*3)%9 < 2 {
		return 8.0 + float64((day+market)%5)*3.0
	}
	return 0.0
}

func loadPrices(ctx context.Context, store storage.RawObservationStore) error {
	var batch []*domain.RawObservation
	for mi, m := range fixtureMarkets {
		base := 2300.0 + float64(mi)*80.0
		for i := 0; i < fixtureDays; i++ {
			modal := base + 2.5*float64(i) + 30.0*math.Sin(float64(i)/4.0)

			// AGMARKNET reports most days but skips a weekly closure.
			if (i+mi)%7 != 6 {
				batch = append(batch, priceRow(m, domain.SourceAgmarknet, i, modal, map[string]string{}))
			}
			// ENAM covers a subset, in rupees per kilogram, including
			// some of the AGMARKNET closure days.
			if i%3 == 0 {
				batch = append(batch, priceRow(m, domain.SourceENAM, i, (modal+15.0)/100.0,
					map[string]string{"modal_price": "inr/kg"}))
			}
			// NCDEX publishes a sparse reference series.
			if i%5 == 2 {
				batch = append(batch, priceRow(m, domain.SourceNCDEX, i, modal+40.0, map[string]string{}))
			}
		}
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		return fmt.Errorf("insert prices: %w", err)
	}
	return nil
}

func priceRow(m *domain.Market, source domain.SourceID, day int, modal float64, units map[string]string) *domain.RawObservation {
	return &domain.RawObservation{
		RowID:       fmt.Sprintf("p_%s_%s_%03d", source, m.MarketID, day),
		SourceID:    source,
		FileID:      fmt.Sprintf("%s/%s.csv", source, m.MarketID),
		RecordIndex: day,
		PlaceName:   m.Name,
		Date:        fixtureStart + domain.Date(day),
		Commodity:   "Wheat",
		Vars:        map[string]float64{"modal_price": modal},
		Units:       units,
	}
}
