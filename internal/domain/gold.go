package domain

// GoldFeatureRow is one model-ready row per (market, date, feature version).
// Every window feature is nullable: insufficient history yields nil, never a
// value computed over a silently truncated window.
type GoldFeatureRow struct {
	MarketID  string // canonical entity id
	Date      Date   // reference date t
	Commodity string // commodity the price columns refer to

	// Weather lags and windows, data strictly <= t.
	RainLag1d          *float64 // precipitation exactly 1 day before t
	RainLag7d          *float64 // precipitation exactly 7 days before t
	TempMeanLag1d      *float64 // mean temperature 1 day before t
	RainCum7d          *float64 // precipitation sum over trailing 7 days
	RainCum30d         *float64 // precipitation sum over trailing 30 days
	TempRollMean7d     *float64 // rolling mean of mean temperature, 7 days
	TempRollStd7d      *float64 // rolling sample std of mean temperature, 7 days
	TempRollMean30d    *float64 // rolling mean of mean temperature, 30 days
	HumidityRollMean7d *float64 // rolling mean of humidity, 7 days
	DaysSinceRain      *int     // days since last precipitation above threshold

	// Price lags and windows (modal price, INR/kg).
	PriceLag1d      *float64 // modal price 1 day before t
	PriceLag7d      *float64 // modal price 7 days before t
	PriceRollMean7d *float64 // rolling mean of modal price, 7 days
	PriceRollStd7d  *float64 // rolling sample std of modal price, 7 days

	// Calendar encodings, pure functions of the date.
	DayOfYear int     // 1-based ordinal day
	DoySin    float64 // sin(2*pi*doy/365.25)
	DoyCos    float64 // cos(2*pi*doy/365.25)

	// Quality carry-through.
	PctImputed30d float64 // imputed fraction of the trailing 30 silver days

	PriceInrKg        *float64 // modal price at t after source fallback
	TargetPctChange7d *float64 // price[t+7]/price[t] - 1, nil if unavailable

	FeatureVersion string  // feature schema version
	Lineage        Lineage // silver record and price point ids consumed
}
