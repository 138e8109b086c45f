package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
)

func testSilverRecord(marketID string, date string, version string) *domain.SilverRecord {
	return &domain.SilverRecord{
		MarketID:    marketID,
		Date:        domain.MustDate(date),
		TempMeanC:   ptr(26.5),
		TempMaxC:    ptr(33.1),
		TempMinC:    ptr(21.0),
		PrecipMm:    ptr(0.0),
		HumidityPct: ptr(58.0),
		Flag:        domain.QualityGood,
		PctImputed:  0.1,
		Version:     version,
		Lineage:     domain.NewLineage("row_b", "row_a"),
	}
}

func TestSilverRecordStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewSilverRecordStore(pool)

	records := []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-02", "silver_v1"),
		testSilverRecord("m1", "2025-06-01", "silver_v1"),
	}
	records[1].WindMs = nil // nulls survive the round trip

	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByMarket(ctx, "m1", "silver_v1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by date regardless of insert order.
	assert.Equal(t, domain.MustDate("2025-06-01"), got[0].Date)
	assert.Equal(t, domain.MustDate("2025-06-02"), got[1].Date)
	assert.Nil(t, got[0].WindMs)
	require.NotNil(t, got[0].TempMeanC)
	assert.Equal(t, 26.5, *got[0].TempMeanC)
	assert.Equal(t, domain.QualityGood, got[0].Flag)
	// Lineage serialization is sorted and stable.
	assert.Equal(t, "row_a|row_b", got[0].Lineage.String())
}

func TestSilverRecordStore_DuplicateFailsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewSilverRecordStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-01", "silver_v1"),
	}))

	// Batch with one colliding key fails entirely.
	err := store.InsertBulk(ctx, []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-02", "silver_v1"),
		testSilverRecord("m1", "2025-06-01", "silver_v1"),
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByMarket(ctx, "m1", "silver_v1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not leave partial rows")
}

func TestSilverRecordStore_VersionsCoexist(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewSilverRecordStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-01", "silver_v1"),
	}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-01", "silver_v2"),
	}))

	v1, err := store.GetByMarket(ctx, "m1", "silver_v1")
	require.NoError(t, err)
	v2, err := store.GetByMarket(ctx, "m1", "silver_v2")
	require.NoError(t, err)
	assert.Len(t, v1, 1)
	assert.Len(t, v2, 1)
}

func TestSilverRecordStore_GetByDateRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewSilverRecordStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SilverRecord{
		testSilverRecord("m1", "2025-06-01", "silver_v1"),
		testSilverRecord("m1", "2025-06-02", "silver_v1"),
		testSilverRecord("m1", "2025-06-03", "silver_v1"),
	}))

	got, err := store.GetByDateRange(ctx, "m1", "silver_v1",
		domain.MustDate("2025-06-02"), domain.MustDate("2025-06-03"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.MustDate("2025-06-02"), got[0].Date)
}
