// Package storage defines the queryable table contracts the transformation
// core runs against. Implementations: memory (tests, fixtures), postgres
// (Bronze view, registry, Silver tables), clickhouse (Gold feature table).
package storage

import (
	"context"

	"mandi-feature-lab/internal/domain"
)

// RawObservationStore provides read access to the Bronze observation table.
// The transformation core treats Bronze as read-only; the insert methods
// exist for fixtures and integration tests.
type RawObservationStore interface {
	// Insert adds a raw observation. Returns ErrDuplicateKey if row_id exists.
	Insert(ctx context.Context, obs *domain.RawObservation) error

	// InsertBulk adds multiple observations atomically.
	InsertBulk(ctx context.Context, obs []*domain.RawObservation) error

	// GetAll retrieves every observation, ordered by (date, row_id) ASC.
	GetAll(ctx context.Context) ([]*domain.RawObservation, error)

	// GetByDateRange retrieves observations with date in [start, end],
	// ordered by (date, row_id) ASC.
	GetByDateRange(ctx context.Context, start, end domain.Date) ([]*domain.RawObservation, error)
}

// MarketStore provides read access to the canonical market registry.
type MarketStore interface {
	// Insert registers a market. Returns ErrDuplicateKey if market_id exists.
	Insert(ctx context.Context, m *domain.Market) error

	// GetByID retrieves a market. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, marketID string) (*domain.Market, error)

	// GetAll retrieves every registered market, ordered by market_id ASC.
	GetAll(ctx context.Context) ([]*domain.Market, error)
}

// SilverRecordStore provides access to the canonical daily weather table.
type SilverRecordStore interface {
	// InsertBulk adds records atomically. Fails the whole batch with
	// ErrDuplicateKey on any existing (market_id, date, version).
	InsertBulk(ctx context.Context, records []*domain.SilverRecord) error

	// GetByMarket retrieves all records for a market and version,
	// ordered by date ASC.
	GetByMarket(ctx context.Context, marketID, version string) ([]*domain.SilverRecord, error)

	// GetByDateRange retrieves records with date in [start, end],
	// ordered by date ASC.
	GetByDateRange(ctx context.Context, marketID, version string, start, end domain.Date) ([]*domain.SilverRecord, error)
}

// PricePointStore provides access to the canonical daily price table.
type PricePointStore interface {
	// InsertBulk adds points atomically. Fails the whole batch with
	// ErrDuplicateKey on any existing
	// (market_id, commodity, date, source_id, version).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByMarketCommodity retrieves all points for one market, commodity
	// and version, ordered by (date, source_id) ASC.
	GetByMarketCommodity(ctx context.Context, marketID, commodity, version string) ([]*domain.PricePoint, error)
}

// GoldFeatureStore provides access to the model-ready feature table.
type GoldFeatureStore interface {
	// InsertBulk adds rows atomically. Fails the whole batch with
	// ErrDuplicateKey on any existing (market_id, date, feature_version).
	InsertBulk(ctx context.Context, rows []*domain.GoldFeatureRow) error

	// GetByMarket retrieves all rows for a market and feature version,
	// ordered by date ASC.
	GetByMarket(ctx context.Context, marketID, featureVersion string) ([]*domain.GoldFeatureRow, error)
}
