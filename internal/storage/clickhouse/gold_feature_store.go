package clickhouse

import (
	"context"
	"fmt"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// GoldFeatureStore implements storage.GoldFeatureStore using ClickHouse.
// Dates are stored as Int32 days since the Unix epoch, matching domain.Date.
// MergeTree does not enforce uniqueness, so duplicates are rejected by an
// explicit pre-insert check against (market_id, date, feature_version).
type GoldFeatureStore struct {
	conn *Conn
}

// NewGoldFeatureStore creates a new GoldFeatureStore.
func NewGoldFeatureStore(conn *Conn) *GoldFeatureStore {
	return &GoldFeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.GoldFeatureStore = (*GoldFeatureStore)(nil)

const goldFeatureColumns = `
	market_id, date, commodity,
	rain_lag_1d, rain_lag_7d, temp_mean_lag_1d,
	rain_cum_7d, rain_cum_30d,
	temp_roll_mean_7d, temp_roll_std_7d, temp_roll_mean_30d,
	humidity_roll_mean_7d, days_since_rain,
	price_lag_1d, price_lag_7d, price_roll_mean_7d, price_roll_std_7d,
	day_of_year, doy_sin, doy_cos, pct_imputed_30d,
	price_inr_kg, target_pct_change_7d,
	feature_version, lineage
`

// InsertBulk adds rows atomically. Fails the whole batch with
// ErrDuplicateKey on any existing (market_id, date, feature_version).
func (s *GoldFeatureStore) InsertBulk(ctx context.Context, featureRows []*domain.GoldFeatureRow) error {
	if len(featureRows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		marketID       string
		date           domain.Date
		featureVersion string
	}
	seen := make(map[key]struct{})
	for _, row := range featureRows {
		k := key{row.MarketID, row.Date, row.FeatureVersion}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, row := range featureRows {
		exists, err := s.exists(ctx, row.MarketID, row.Date, row.FeatureVersion)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO gold_features (`+goldFeatureColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range featureRows {
		// Pass nil values directly for Nullable columns
		err = batch.Append(
			row.MarketID, int32(row.Date), row.Commodity,
			row.RainLag1d, row.RainLag7d, row.TempMeanLag1d,
			row.RainCum7d, row.RainCum30d,
			row.TempRollMean7d, row.TempRollStd7d, row.TempRollMean30d,
			row.HumidityRollMean7d, toNullableInt32(row.DaysSinceRain),
			row.PriceLag1d, row.PriceLag7d, row.PriceRollMean7d, row.PriceRollStd7d,
			int32(row.DayOfYear), row.DoySin, row.DoyCos, row.PctImputed30d,
			row.PriceInrKg, row.TargetPctChange7d,
			row.FeatureVersion, row.Lineage.String(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMarket retrieves all rows for a market and feature version, ordered by date ASC.
func (s *GoldFeatureStore) GetByMarket(ctx context.Context, marketID, featureVersion string) ([]*domain.GoldFeatureRow, error) {
	query := `
		SELECT ` + goldFeatureColumns + `
		FROM gold_features
		WHERE market_id = ? AND feature_version = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, marketID, featureVersion)
	if err != nil {
		return nil, fmt.Errorf("query gold features by market: %w", err)
	}
	defer rows.Close()

	return scanGoldFeatures(rows)
}

// exists checks if a row with the given key exists.
func (s *GoldFeatureStore) exists(ctx context.Context, marketID string, date domain.Date, featureVersion string) (bool, error) {
	query := `
		SELECT count(*) FROM gold_features
		WHERE market_id = ? AND date = ? AND feature_version = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, marketID, int32(date), featureVersion).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// toNullableInt32 converts *int to *int32 for ClickHouse Nullable(Int32).
func toNullableInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanGoldFeatures scans multiple rows.
func scanGoldFeatures(rows chRows) ([]*domain.GoldFeatureRow, error) {
	var featureRows []*domain.GoldFeatureRow

	for rows.Next() {
		var row domain.GoldFeatureRow
		var date, dayOfYear int32
		var daysSinceRain *int32
		var lineage string

		err := rows.Scan(
			&row.MarketID, &date, &row.Commodity,
			&row.RainLag1d, &row.RainLag7d, &row.TempMeanLag1d,
			&row.RainCum7d, &row.RainCum30d,
			&row.TempRollMean7d, &row.TempRollStd7d, &row.TempRollMean30d,
			&row.HumidityRollMean7d, &daysSinceRain,
			&row.PriceLag1d, &row.PriceLag7d, &row.PriceRollMean7d, &row.PriceRollStd7d,
			&dayOfYear, &row.DoySin, &row.DoyCos, &row.PctImputed30d,
			&row.PriceInrKg, &row.TargetPctChange7d,
			&row.FeatureVersion, &lineage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan gold feature row: %w", err)
		}

		row.Date = domain.Date(date)
		row.DayOfYear = int(dayOfYear)
		if daysSinceRain != nil {
			v := int(*daysSinceRain)
			row.DaysSinceRain = &v
		}
		row.Lineage = domain.ParseLineage(lineage)
		featureRows = append(featureRows, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gold feature rows: %w", err)
	}

	return featureRows, nil
}
