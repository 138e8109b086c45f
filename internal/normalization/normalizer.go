package normalization

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mandi-feature-lab/internal/domain"
)

// Warning records a non-fatal normalization issue: an unrecognized variable
// that was dropped, or a recognized variable whose field was nulled.
type Warning struct {
	RowID    string // Bronze row the issue occurred in
	Variable string // raw variable name
	Reason   string // human-readable reason
}

// WeatherPartial is one normalized weather observation before dedup/merge.
// Several partials can share a (market, date) key when sources overlap.
type WeatherPartial struct {
	MarketID    string
	Date        domain.Date
	TempMeanC   *float64
	TempMaxC    *float64
	TempMinC    *float64
	PrecipMm    *float64
	HumidityPct *float64
	WindMs      *float64
	RowID       string // upstream Bronze row id
}

// PricePartial is one normalized price observation before dedup/merge.
type PricePartial struct {
	MarketID   string
	Commodity  string
	Date       domain.Date
	SourceID   domain.SourceID
	MinInrKg   *float64
	ModalInrKg *float64
	MaxInrKg   *float64
	RowID      string // upstream Bronze row id
}

// weatherVarOrder fixes processing order so that precipitation_sum wins
// over rain_sum when a record reports both.
var weatherVarOrder = []string{
	"temperature_2m_mean", "temperature_2m_max", "temperature_2m_min",
	"precipitation_sum", "rain_sum",
	"relative_humidity_2m_mean",
	"wind_speed_10m_mean",
}

var priceVarOrder = []string{"min_price", "modal_price", "max_price"}

// NormalizeWeather converts a raw weather observation into canonical units.
// Unrecognized variables are dropped with a warning; a recognized variable
// with an out-of-table unit nulls that field (ErrUnknownUnit wrapped in the
// warning reason) and the record proceeds.
func NormalizeWeather(obs *domain.RawObservation, marketID string) (*WeatherPartial, []Warning) {
	p := &WeatherPartial{MarketID: marketID, Date: obs.Date, RowID: obs.RowID}

	fields := map[string]**float64{
		FieldTempMeanC:   &p.TempMeanC,
		FieldTempMaxC:    &p.TempMaxC,
		FieldTempMinC:    &p.TempMinC,
		FieldPrecipMm:    &p.PrecipMm,
		FieldHumidityPct: &p.HumidityPct,
		FieldWindMs:      &p.WindMs,
	}

	warnings := applyConversions(obs, weatherConversions, weatherVarOrder, fields)
	warnings = append(warnings, unrecognizedVarWarnings(obs, weatherConversions)...)
	return p, warnings
}

// NormalizePrice converts a raw price observation into INR per kilogram.
func NormalizePrice(obs *domain.RawObservation, marketID string) (*PricePartial, []Warning) {
	p := &PricePartial{
		MarketID:  marketID,
		Commodity: strings.ToLower(strings.TrimSpace(obs.Commodity)),
		Date:      obs.Date,
		SourceID:  obs.SourceID,
		RowID:     obs.RowID,
	}

	fields := map[string]**float64{
		FieldMinInrKg:   &p.MinInrKg,
		FieldModalInrKg: &p.ModalInrKg,
		FieldMaxInrKg:   &p.MaxInrKg,
	}

	warnings := applyConversions(obs, priceConversions, priceVarOrder, fields)
	warnings = append(warnings, unrecognizedVarWarnings(obs, priceConversions)...)
	return p, warnings
}

// applyConversions walks the recognized variables in fixed order and fills
// canonical fields. First writer to a field wins.
func applyConversions(
	obs *domain.RawObservation,
	table map[string]conversion,
	order []string,
	fields map[string]**float64,
) []Warning {
	var warnings []Warning

	for _, varName := range order {
		raw, present := obs.Vars[varName]
		if !present {
			continue
		}
		conv := table[varName]

		target := fields[conv.field]
		if *target != nil {
			continue
		}

		value, err := conv.convert(raw, obs.Units[varName])
		if err != nil {
			if errors.Is(err, ErrUnknownUnit) {
				warnings = append(warnings, Warning{
					RowID:    obs.RowID,
					Variable: varName,
					Reason:   fmt.Sprintf("field nulled: %v", err),
				})
				continue
			}
			// convert only fails with ErrUnknownUnit today
			warnings = append(warnings, Warning{RowID: obs.RowID, Variable: varName, Reason: err.Error()})
			continue
		}

		v := value
		*target = &v
	}

	return warnings
}

// unrecognizedVarWarnings records dropped variables in sorted order.
func unrecognizedVarWarnings(obs *domain.RawObservation, table map[string]conversion) []Warning {
	var dropped []string
	for varName := range obs.Vars {
		if _, ok := table[varName]; !ok {
			dropped = append(dropped, varName)
		}
	}
	if len(dropped) == 0 {
		return nil
	}

	sort.Strings(dropped)
	warnings := make([]Warning, 0, len(dropped))
	for _, varName := range dropped {
		warnings = append(warnings, Warning{
			RowID:    obs.RowID,
			Variable: varName,
			Reason:   "unrecognized variable dropped",
		})
	}
	return warnings
}
