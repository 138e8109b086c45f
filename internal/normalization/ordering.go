package normalization

import "sort"

// SortWeatherPartials orders partials by (market_id ASC, date ASC, row_id ASC).
// Row id is the Bronze checksum, so the order is independent of source
// arrival order and stable across runs.
func SortWeatherPartials(partials []*WeatherPartial) {
	sort.Slice(partials, func(i, j int) bool {
		return compareWeatherPartials(partials[i], partials[j]) < 0
	})
}

// SortPricePartials orders partials by
// (market_id ASC, commodity ASC, date ASC, source_id ASC, row_id ASC).
func SortPricePartials(partials []*PricePartial) {
	sort.Slice(partials, func(i, j int) bool {
		return comparePricePartials(partials[i], partials[j]) < 0
	})
}

func compareWeatherPartials(a, b *WeatherPartial) int {
	if a.MarketID != b.MarketID {
		if a.MarketID < b.MarketID {
			return -1
		}
		return 1
	}
	if a.Date != b.Date {
		if a.Date < b.Date {
			return -1
		}
		return 1
	}
	if a.RowID != b.RowID {
		if a.RowID < b.RowID {
			return -1
		}
		return 1
	}
	return 0
}

func comparePricePartials(a, b *PricePartial) int {
	if a.MarketID != b.MarketID {
		if a.MarketID < b.MarketID {
			return -1
		}
		return 1
	}
	if a.Commodity != b.Commodity {
		if a.Commodity < b.Commodity {
			return -1
		}
		return 1
	}
	if a.Date != b.Date {
		if a.Date < b.Date {
			return -1
		}
		return 1
	}
	if a.SourceID != b.SourceID {
		if a.SourceID < b.SourceID {
			return -1
		}
		return 1
	}
	if a.RowID != b.RowID {
		if a.RowID < b.RowID {
			return -1
		}
		return 1
	}
	return 0
}
