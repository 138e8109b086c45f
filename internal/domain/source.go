package domain

// SourceID identifies an upstream data feed.
type SourceID string

// Known upstream sources.
const (
	SourceOpenMeteo SourceID = "OPENMETEO" // daily weather archive
	SourceAgmarknet SourceID = "AGMARKNET" // primary mandi price feed
	SourceENAM      SourceID = "ENAM"      // first price fallback
	SourceNCDEX     SourceID = "NCDEX"     // second price fallback
)

// PriceSourcePriority lists price feeds in label-fallback order.
// The label generator consults them left to right and uses the first
// feed with a value on the exact date.
var PriceSourcePriority = []SourceID{SourceAgmarknet, SourceENAM, SourceNCDEX}

// IsPriceSource reports whether the source carries commodity prices.
func (s SourceID) IsPriceSource() bool {
	switch s {
	case SourceAgmarknet, SourceENAM, SourceNCDEX:
		return true
	}
	return false
}
