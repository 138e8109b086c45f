package domain

// RawObservation is one source-reported measurement as handed over by the
// Bronze layer. Immutable; this core only reads it.
type RawObservation struct {
	RowID       string             // Bronze row checksum, stable across runs
	SourceID    SourceID           // originating feed
	FileID      string             // Bronze file the row was parsed from
	RecordIndex int                // position within the originating file
	PlaceName   string             // raw location descriptor as reported
	Lat         *float64           // reported latitude, nil if absent
	Lon         *float64           // reported longitude, nil if absent
	Date        Date               // observation date
	Commodity   string             // commodity name, empty for weather feeds
	Vars        map[string]float64 // raw variable name -> raw value
	Units       map[string]string  // declared unit per variable, empty = source default
}

// Market is a resolved canonical entity: one physical APMC mandi.
// The registry that owns these rows is external; snapshots are read-only.
type Market struct {
	MarketID string  // stable identifier, never reassigned
	Name     string  // display name as registered
	NameNorm string  // normalized name used for exact matching
	State    string  // administrative region
	Lat      float64 // registry latitude
	Lon      float64 // registry longitude
}
