package gold

import (
	"context"
	"fmt"

	"mandi-feature-lab/internal/storage"
)

// Runner derives and stores one market's Gold feature rows.
// Steps per market:
//  1. Load the silver cohort for the configured version
//  2. Load price points across all sources
//  3. Compute features and labels
//  4. Store rows (append-only per feature version)
type Runner struct {
	silverStore storage.SilverRecordStore
	priceStore  storage.PricePointStore
	goldStore   storage.GoldFeatureStore
	cfg         Config
}

// NewRunner creates a gold build runner.
func NewRunner(silverStore storage.SilverRecordStore, priceStore storage.PricePointStore, goldStore storage.GoldFeatureStore, cfg Config) *Runner {
	return &Runner{
		silverStore: silverStore,
		priceStore:  priceStore,
		goldStore:   goldStore,
		cfg:         cfg,
	}
}

// BuildResult reports what one market's gold build produced.
type BuildResult struct {
	Rows       int // feature rows stored
	NullLabels int // rows emitted with a null label
}

// BuildMarket derives and stores the feature table for a single market and
// commodity. Returns (nil-result, nil) when the market has no silver data.
func (r *Runner) BuildMarket(ctx context.Context, marketID, commodity string) (*BuildResult, error) {
	records, err := r.silverStore.GetByMarket(ctx, marketID, r.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load silver records: %w", err)
	}
	if len(records) == 0 {
		return &BuildResult{}, nil
	}

	prices, err := r.priceStore.GetByMarketCommodity(ctx, marketID, commodity, r.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load price points: %w", err)
	}

	rows := ComputeFeatures(records, prices, commodity, r.cfg)
	if len(rows) == 0 {
		return &BuildResult{}, nil
	}

	if err := r.goldStore.InsertBulk(ctx, rows); err != nil {
		return nil, fmt.Errorf("insert gold rows: %w", err)
	}

	result := &BuildResult{Rows: len(rows)}
	for _, row := range rows {
		if row.TargetPctChange7d == nil {
			result.NullLabels++
		}
	}
	return result, nil
}
