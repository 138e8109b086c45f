package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// PricePointStore implements storage.PricePointStore using PostgreSQL.
type PricePointStore struct {
	pool *Pool
}

// NewPricePointStore creates a new PricePointStore.
func NewPricePointStore(pool *Pool) *PricePointStore {
	return &PricePointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

// InsertBulk adds points atomically. Fails the whole batch with
// ErrDuplicateKey on any existing (market_id, commodity, date, source_id, version).
func (s *PricePointStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO price_points (
			market_id, commodity, date, source_id,
			min_inr_kg, modal_inr_kg, max_inr_kg, version, lineage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query,
			p.MarketID,
			p.Commodity,
			int32(p.Date),
			string(p.SourceID),
			p.MinInrKg,
			p.ModalInrKg,
			p.MaxInrKg,
			p.Version,
			p.Lineage.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert price point in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByMarketCommodity retrieves all points for one market, commodity and
// version, ordered by (date, source_id) ASC.
func (s *PricePointStore) GetByMarketCommodity(ctx context.Context, marketID, commodity, version string) ([]*domain.PricePoint, error) {
	query := `
		SELECT market_id, commodity, date, source_id,
			min_inr_kg, modal_inr_kg, max_inr_kg, version, lineage
		FROM price_points
		WHERE market_id = $1 AND commodity = $2 AND version = $3
		ORDER BY date ASC, source_id ASC
	`

	rows, err := s.pool.Query(ctx, query, marketID, commodity, version)
	if err != nil {
		return nil, fmt.Errorf("get price points by market/commodity: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// scanPricePoints scans multiple rows into a slice of PricePoint.
func scanPricePoints(rows pgx.Rows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var date int32
		var sourceID, lineage string

		err := rows.Scan(
			&p.MarketID,
			&p.Commodity,
			&date,
			&sourceID,
			&p.MinInrKg,
			&p.ModalInrKg,
			&p.MaxInrKg,
			&p.Version,
			&lineage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}

		p.Date = domain.Date(date)
		p.SourceID = domain.SourceID(sourceID)
		p.Lineage = domain.ParseLineage(lineage)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}

	return points, nil
}
