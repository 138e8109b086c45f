package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// SilverRecordStore implements storage.SilverRecordStore using PostgreSQL.
type SilverRecordStore struct {
	pool *Pool
}

// NewSilverRecordStore creates a new SilverRecordStore.
func NewSilverRecordStore(pool *Pool) *SilverRecordStore {
	return &SilverRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SilverRecordStore = (*SilverRecordStore)(nil)

const silverRecordColumns = `
	market_id, date, temp_mean_c, temp_max_c, temp_min_c,
	precip_mm, humidity_pct, wind_ms, flag, pct_imputed, version, lineage
`

// InsertBulk adds records atomically. Fails the whole batch with
// ErrDuplicateKey on any existing (market_id, date, version).
func (s *SilverRecordStore) InsertBulk(ctx context.Context, records []*domain.SilverRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO silver_records (
			market_id, date, temp_mean_c, temp_max_c, temp_min_c,
			precip_mm, humidity_pct, wind_ms, flag, pct_imputed, version, lineage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.MarketID,
			int32(r.Date),
			r.TempMeanC,
			r.TempMaxC,
			r.TempMinC,
			r.PrecipMm,
			r.HumidityPct,
			r.WindMs,
			string(r.Flag),
			r.PctImputed,
			r.Version,
			r.Lineage.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert silver record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByMarket retrieves all records for a market and version, ordered by date ASC.
func (s *SilverRecordStore) GetByMarket(ctx context.Context, marketID, version string) ([]*domain.SilverRecord, error) {
	query := `
		SELECT ` + silverRecordColumns + `
		FROM silver_records
		WHERE market_id = $1 AND version = $2
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, marketID, version)
	if err != nil {
		return nil, fmt.Errorf("get silver records by market: %w", err)
	}
	defer rows.Close()

	return scanSilverRecords(rows)
}

// GetByDateRange retrieves records with date in [start, end], ordered by date ASC.
func (s *SilverRecordStore) GetByDateRange(ctx context.Context, marketID, version string, start, end domain.Date) ([]*domain.SilverRecord, error) {
	query := `
		SELECT ` + silverRecordColumns + `
		FROM silver_records
		WHERE market_id = $1 AND version = $2 AND date >= $3 AND date <= $4
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, marketID, version, int32(start), int32(end))
	if err != nil {
		return nil, fmt.Errorf("get silver records by date range: %w", err)
	}
	defer rows.Close()

	return scanSilverRecords(rows)
}

// scanSilverRecords scans multiple rows into a slice of SilverRecord.
func scanSilverRecords(rows pgx.Rows) ([]*domain.SilverRecord, error) {
	var records []*domain.SilverRecord

	for rows.Next() {
		var r domain.SilverRecord
		var date int32
		var flag, lineage string

		err := rows.Scan(
			&r.MarketID,
			&date,
			&r.TempMeanC,
			&r.TempMaxC,
			&r.TempMinC,
			&r.PrecipMm,
			&r.HumidityPct,
			&r.WindMs,
			&flag,
			&r.PctImputed,
			&r.Version,
			&lineage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan silver record row: %w", err)
		}

		r.Date = domain.Date(date)
		r.Flag = domain.QualityFlag(flag)
		r.Lineage = domain.ParseLineage(lineage)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate silver record rows: %w", err)
	}

	return records, nil
}
