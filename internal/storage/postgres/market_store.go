package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert registers a market. Returns ErrDuplicateKey if market_id exists.
func (s *MarketStore) Insert(ctx context.Context, m *domain.Market) error {
	query := `
		INSERT INTO markets (
			market_id, name, name_norm, state, lat, lon
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		m.MarketID,
		m.Name,
		m.NameNorm,
		m.State,
		m.Lat,
		m.Lon,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// GetByID retrieves a market. Returns ErrNotFound if absent.
func (s *MarketStore) GetByID(ctx context.Context, marketID string) (*domain.Market, error) {
	query := `
		SELECT market_id, name, name_norm, state, lat, lon
		FROM markets
		WHERE market_id = $1
	`

	var m domain.Market
	err := s.pool.QueryRow(ctx, query, marketID).Scan(
		&m.MarketID, &m.Name, &m.NameNorm, &m.State, &m.Lat, &m.Lon,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market by id: %w", err)
	}
	return &m, nil
}

// GetAll retrieves every registered market, ordered by market_id ASC.
func (s *MarketStore) GetAll(ctx context.Context) ([]*domain.Market, error) {
	query := `
		SELECT market_id, name, name_norm, state, lat, lon
		FROM markets
		ORDER BY market_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all markets: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// scanMarkets scans multiple rows into a slice of Market.
func scanMarkets(rows pgx.Rows) ([]*domain.Market, error) {
	var markets []*domain.Market

	for rows.Next() {
		var m domain.Market
		err := rows.Scan(&m.MarketID, &m.Name, &m.NameNorm, &m.State, &m.Lat, &m.Lon)
		if err != nil {
			return nil, fmt.Errorf("scan market row: %w", err)
		}
		markets = append(markets, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market rows: %w", err)
	}

	return markets, nil
}
