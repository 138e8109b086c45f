// Package normalization converts heterogeneous raw observations into the
// canonical unit system: temperature in degrees Celsius, precipitation in
// millimetres, humidity in percent, wind speed in metres per second, prices
// in INR per kilogram.
package normalization

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUnit is returned when a recognized variable declares a unit
// outside the conversion table. The affected field is nulled; the record
// otherwise proceeds.
var ErrUnknownUnit = errors.New("unknown unit for recognized variable")

// Canonical field names within a silver record.
const (
	FieldTempMeanC   = "temp_mean_c"
	FieldTempMaxC    = "temp_max_c"
	FieldTempMinC    = "temp_min_c"
	FieldPrecipMm    = "precip_mm"
	FieldHumidityPct = "humidity_pct"
	FieldWindMs      = "wind_ms"

	FieldMinInrKg   = "min_inr_kg"
	FieldModalInrKg = "modal_inr_kg"
	FieldMaxInrKg   = "max_inr_kg"
)

// conversion maps one raw variable name to a canonical field. defaultUnit
// applies when the source declares no unit; factors is total over all
// accepted unit spellings.
type conversion struct {
	field       string
	defaultUnit string
	factors     map[string]float64
}

// Unit spellings are lowercase; convert folds case before lookup.
var (
	celsiusUnits = map[string]float64{"celsius": 1, "c": 1, "°c": 1}
	mmUnits      = map[string]float64{"mm": 1, "millimetre": 1}
	pctUnits     = map[string]float64{"%": 1, "percent": 1}
	windUnits    = map[string]float64{"km/h": 1.0 / 3.6, "kmh": 1.0 / 3.6, "m/s": 1, "ms": 1}
	// Mandi feeds quote INR per quintal (100 kg).
	priceUnits = map[string]float64{"inr/quintal": 0.01, "rs/quintal": 0.01, "inr/kg": 1}
)

// weatherConversions is the total conversion table over recognized
// Open-Meteo daily variable names. Variables absent here (wind direction,
// wet bulb temperature) are dropped with a recorded warning.
var weatherConversions = map[string]conversion{
	"temperature_2m_mean": {field: FieldTempMeanC, defaultUnit: "celsius", factors: celsiusUnits},
	"temperature_2m_max":  {field: FieldTempMaxC, defaultUnit: "celsius", factors: celsiusUnits},
	"temperature_2m_min":  {field: FieldTempMinC, defaultUnit: "celsius", factors: celsiusUnits},

	// precipitation_sum includes rain_sum; prefer it when both present.
	"precipitation_sum": {field: FieldPrecipMm, defaultUnit: "mm", factors: mmUnits},
	"rain_sum":          {field: FieldPrecipMm, defaultUnit: "mm", factors: mmUnits},

	"relative_humidity_2m_mean": {field: FieldHumidityPct, defaultUnit: "%", factors: pctUnits},

	"wind_speed_10m_mean": {field: FieldWindMs, defaultUnit: "km/h", factors: windUnits},
}

// priceConversions is the total conversion table over recognized price
// variable names, shared by Agmarknet, eNAM and NCDEX rows.
var priceConversions = map[string]conversion{
	"min_price":   {field: FieldMinInrKg, defaultUnit: "inr/quintal", factors: priceUnits},
	"modal_price": {field: FieldModalInrKg, defaultUnit: "inr/quintal", factors: priceUnits},
	"max_price":   {field: FieldMaxInrKg, defaultUnit: "inr/quintal", factors: priceUnits},
}

// convert applies the unit factor for one raw value. Declared units are
// matched case-insensitively, so "C", "Celsius" and "°C" all resolve.
// Returns ErrUnknownUnit when the declared unit is outside the table.
func (c conversion) convert(value float64, declaredUnit string) (float64, error) {
	unit := strings.ToLower(strings.TrimSpace(declaredUnit))
	if unit == "" {
		unit = c.defaultUnit
	}
	factor, ok := c.factors[unit]
	if !ok {
		return 0, fmt.Errorf("variable %s declares unit %q: %w", c.field, unit, ErrUnknownUnit)
	}
	return value * factor, nil
}
