package normalization

import (
	"strings"
	"testing"

	"mandi-feature-lab/internal/domain"
)

func weatherObs(rowID string, vars map[string]float64, units map[string]string) *domain.RawObservation {
	return &domain.RawObservation{
		RowID:    rowID,
		SourceID: domain.SourceOpenMeteo,
		Date:     domain.MustDate("2025-06-01"),
		Vars:     vars,
		Units:    units,
	}
}

func TestNormalizeWeather_CanonicalUnits(t *testing.T) {
	obs := weatherObs("row1", map[string]float64{
		"temperature_2m_mean":       28.4,
		"precipitation_sum":         12.0,
		"relative_humidity_2m_mean": 71.0,
		"wind_speed_10m_mean":       18.0, // km/h by source default
	}, nil)

	p, warnings := NormalizeWeather(obs, "mkt_kota")

	if len(warnings) != 0 {
		t.Fatalf("Expected no warnings, got %v", warnings)
	}
	if p.TempMeanC == nil || *p.TempMeanC != 28.4 {
		t.Errorf("Expected temp 28.4, got %v", p.TempMeanC)
	}
	if p.PrecipMm == nil || *p.PrecipMm != 12.0 {
		t.Errorf("Expected precip 12.0, got %v", p.PrecipMm)
	}
	if p.WindMs == nil || *p.WindMs != 5.0 {
		t.Errorf("Expected wind 18 km/h -> 5.0 m/s, got %v", p.WindMs)
	}
	if p.MarketID != "mkt_kota" || p.RowID != "row1" {
		t.Errorf("Partial lost identity: %+v", p)
	}
}

func TestNormalizeWeather_UnitSpellingsFoldCase(t *testing.T) {
	for _, unit := range []string{"C", "Celsius", "°C", " celsius "} {
		obs := weatherObs("row1",
			map[string]float64{"temperature_2m_mean": 28.4},
			map[string]string{"temperature_2m_mean": unit})

		p, warnings := NormalizeWeather(obs, "mkt_kota")

		if len(warnings) != 0 {
			t.Errorf("Unit %q raised warnings: %v", unit, warnings)
		}
		if p.TempMeanC == nil || *p.TempMeanC != 28.4 {
			t.Errorf("Unit %q: expected temp 28.4, got %v", unit, p.TempMeanC)
		}
	}
}

func TestNormalizeWeather_PrecipitationSumWinsOverRainSum(t *testing.T) {
	obs := weatherObs("row1", map[string]float64{
		"precipitation_sum": 10.0,
		"rain_sum":          7.5,
	}, nil)

	p, _ := NormalizeWeather(obs, "mkt_kota")

	if p.PrecipMm == nil || *p.PrecipMm != 10.0 {
		t.Errorf("Expected precipitation_sum to win, got %v", p.PrecipMm)
	}
}

func TestNormalizeWeather_UnrecognizedVariableDropped(t *testing.T) {
	obs := weatherObs("row1", map[string]float64{
		"temperature_2m_mean":           20.0,
		"wind_direction_10m_dominant":   180.0,
		"wet_bulb_temperature_2m_mean": 18.0,
	}, nil)

	p, warnings := NormalizeWeather(obs, "mkt_kota")

	if p.TempMeanC == nil {
		t.Error("Recognized variable should still be converted")
	}
	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings for dropped variables, got %d", len(warnings))
	}
	// Warnings are sorted by variable name.
	if warnings[0].Variable != "wet_bulb_temperature_2m_mean" || warnings[1].Variable != "wind_direction_10m_dominant" {
		t.Errorf("Unexpected warning order: %+v", warnings)
	}
}

func TestNormalizeWeather_UnknownUnitNullsField(t *testing.T) {
	obs := weatherObs("row1",
		map[string]float64{"temperature_2m_mean": 82.0, "precipitation_sum": 3.0},
		map[string]string{"temperature_2m_mean": "fahrenheit"},
	)

	p, warnings := NormalizeWeather(obs, "mkt_kota")

	if p.TempMeanC != nil {
		t.Errorf("Field with unknown unit must be nulled, got %v", *p.TempMeanC)
	}
	if p.PrecipMm == nil {
		t.Error("Other fields must proceed")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Reason, "unknown unit") {
		t.Errorf("Expected one unknown-unit warning, got %+v", warnings)
	}
}

func TestNormalizePrice_QuintalToKg(t *testing.T) {
	obs := &domain.RawObservation{
		RowID:     "rowP",
		SourceID:  domain.SourceAgmarknet,
		Date:      domain.MustDate("2025-06-01"),
		Commodity: " Wheat ",
		Vars: map[string]float64{
			"min_price":   2200,
			"modal_price": 2450,
			"max_price":   2600,
		},
	}

	p, warnings := NormalizePrice(obs, "mkt_kota")

	if len(warnings) != 0 {
		t.Fatalf("Expected no warnings, got %v", warnings)
	}
	if p.Commodity != "wheat" {
		t.Errorf("Expected normalized commodity wheat, got %q", p.Commodity)
	}
	if p.ModalInrKg == nil || *p.ModalInrKg != 24.5 {
		t.Errorf("Expected 2450 INR/quintal -> 24.5 INR/kg, got %v", p.ModalInrKg)
	}
	if p.MinInrKg == nil || *p.MinInrKg != 22.0 {
		t.Errorf("Expected min 22.0, got %v", p.MinInrKg)
	}
}

func TestNormalizePrice_ExplicitPerKgUnit(t *testing.T) {
	obs := &domain.RawObservation{
		RowID:     "rowP",
		SourceID:  domain.SourceNCDEX,
		Date:      domain.MustDate("2025-06-01"),
		Commodity: "guar seed",
		Vars:      map[string]float64{"modal_price": 55.0},
		Units:     map[string]string{"modal_price": "inr/kg"},
	}

	p, _ := NormalizePrice(obs, "mkt_kota")

	if p.ModalInrKg == nil || *p.ModalInrKg != 55.0 {
		t.Errorf("Expected pass-through 55.0 INR/kg, got %v", p.ModalInrKg)
	}
}

func TestSortWeatherPartials_ArrivalOrderIndependent(t *testing.T) {
	d := domain.MustDate("2025-06-01")
	a := &WeatherPartial{MarketID: "m1", Date: d, RowID: "row_a"}
	b := &WeatherPartial{MarketID: "m1", Date: d, RowID: "row_b"}
	c := &WeatherPartial{MarketID: "m1", Date: d + 1, RowID: "row_c"}

	forward := []*WeatherPartial{c, b, a}
	backward := []*WeatherPartial{a, c, b}
	SortWeatherPartials(forward)
	SortWeatherPartials(backward)

	for i := range forward {
		if forward[i] != backward[i] {
			t.Fatalf("Sort depends on arrival order at index %d", i)
		}
	}
	if forward[0] != a || forward[2] != c {
		t.Errorf("Unexpected canonical order: %v", forward)
	}
}
