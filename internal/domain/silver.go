package domain

// QualityFlag marks how trustworthy a canonical daily record is.
type QualityFlag string

// Quality flags, in decreasing order of trust.
const (
	QualityGood        QualityFlag = "GOOD"
	QualityImputed     QualityFlag = "IMPUTED"
	QualityLowCoverage QualityFlag = "LOW_COVERAGE"
)

// SilverRecord is the canonical daily weather observation for one market.
// At most one record exists per (market_id, date, version).
// All measured quantities are nullable: a source may report any subset.
type SilverRecord struct {
	MarketID    string      // canonical entity id
	Date        Date        // observation date
	TempMeanC   *float64    // mean temperature, degrees Celsius
	TempMaxC    *float64    // max temperature, degrees Celsius
	TempMinC    *float64    // min temperature, degrees Celsius
	PrecipMm    *float64    // precipitation sum, millimetres
	HumidityPct *float64    // mean relative humidity, percent
	WindMs      *float64    // mean wind speed, metres per second
	Flag        QualityFlag // provenance/quality flag
	PctImputed  float64     // imputed fraction of the trailing quality window
	Version     string      // transformation version that produced the record
	Lineage     Lineage     // upstream Bronze row ids
}

// PricePoint is one canonical daily commodity price for a market, per source.
// Prices are INR per kilogram. At most one point exists per
// (market_id, commodity, date, source_id, version).
type PricePoint struct {
	MarketID   string   // canonical entity id
	Commodity  string   // commodity name, normalized lowercase
	Date       Date     // reported date
	SourceID   SourceID // price feed the point came from
	MinInrKg   *float64 // reported minimum price
	ModalInrKg *float64 // reported modal price, used for features and labels
	MaxInrKg   *float64 // reported maximum price
	Version    string   // transformation version
	Lineage    Lineage  // upstream Bronze row ids
}
