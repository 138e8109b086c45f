package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

// RawObservationStore implements storage.RawObservationStore using PostgreSQL.
// Dates are stored as integer days since the Unix epoch, matching domain.Date.
type RawObservationStore struct {
	pool *Pool
}

// NewRawObservationStore creates a new RawObservationStore.
func NewRawObservationStore(pool *Pool) *RawObservationStore {
	return &RawObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawObservationStore = (*RawObservationStore)(nil)

const rawObservationColumns = `
	row_id, source_id, file_id, record_index, place_name,
	lat, lon, date, commodity, vars, units
`

const insertRawObservationQuery = `
	INSERT INTO raw_observations (
		row_id, source_id, file_id, record_index, place_name,
		lat, lon, date, commodity, vars, units
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// Insert adds a raw observation. Returns ErrDuplicateKey if row_id exists.
func (s *RawObservationStore) Insert(ctx context.Context, obs *domain.RawObservation) error {
	_, err := s.pool.Exec(ctx, insertRawObservationQuery, rawObservationArgs(obs)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert raw observation: %w", err)
	}
	return nil
}

// InsertBulk adds multiple observations atomically. Fails entire batch on any duplicate.
func (s *RawObservationStore) InsertBulk(ctx context.Context, observations []*domain.RawObservation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, obs := range observations {
		_, err := tx.Exec(ctx, insertRawObservationQuery, rawObservationArgs(obs)...)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert raw observation in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves every observation, ordered by (date, row_id) ASC.
func (s *RawObservationStore) GetAll(ctx context.Context) ([]*domain.RawObservation, error) {
	query := `
		SELECT ` + rawObservationColumns + `
		FROM raw_observations
		ORDER BY date ASC, row_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all raw observations: %w", err)
	}
	defer rows.Close()

	return scanRawObservations(rows)
}

// GetByDateRange retrieves observations with date in [start, end], ordered by (date, row_id) ASC.
func (s *RawObservationStore) GetByDateRange(ctx context.Context, start, end domain.Date) ([]*domain.RawObservation, error) {
	query := `
		SELECT ` + rawObservationColumns + `
		FROM raw_observations
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC, row_id ASC
	`

	rows, err := s.pool.Query(ctx, query, int32(start), int32(end))
	if err != nil {
		return nil, fmt.Errorf("get raw observations by date range: %w", err)
	}
	defer rows.Close()

	return scanRawObservations(rows)
}

// rawObservationArgs builds the insert argument list for one observation.
func rawObservationArgs(obs *domain.RawObservation) []interface{} {
	return []interface{}{
		obs.RowID,
		string(obs.SourceID),
		obs.FileID,
		obs.RecordIndex,
		obs.PlaceName,
		obs.Lat,
		obs.Lon,
		int32(obs.Date),
		obs.Commodity,
		obs.Vars,
		obs.Units,
	}
}

// scanRawObservations scans multiple rows into a slice of RawObservation.
func scanRawObservations(rows pgx.Rows) ([]*domain.RawObservation, error) {
	var observations []*domain.RawObservation

	for rows.Next() {
		var obs domain.RawObservation
		var sourceID string
		var date int32

		err := rows.Scan(
			&obs.RowID,
			&sourceID,
			&obs.FileID,
			&obs.RecordIndex,
			&obs.PlaceName,
			&obs.Lat,
			&obs.Lon,
			&date,
			&obs.Commodity,
			&obs.Vars,
			&obs.Units,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw observation row: %w", err)
		}

		obs.SourceID = domain.SourceID(sourceID)
		obs.Date = domain.Date(date)
		observations = append(observations, &obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw observation rows: %w", err)
	}

	return observations, nil
}
