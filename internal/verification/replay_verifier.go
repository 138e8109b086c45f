package verification

import (
	"context"
	"errors"
	"fmt"

	"mandi-feature-lab/internal/config"
	"mandi-feature-lab/internal/orchestrator"
	"mandi-feature-lab/internal/storage"
	"mandi-feature-lab/internal/storage/memory"
)

// ErrMarketNotFound is returned when a market has no stored cohort.
var ErrMarketNotFound = errors.New("market not found in stored cohort")

// ReplayVerifier re-runs the transformation from raw inputs into scratch
// stores and compares the result against the primary stores, market by
// market. A divergence means either the stored cohort was tampered with
// or the transformation is not deterministic.
type ReplayVerifier struct {
	rawStore    storage.RawObservationStore
	marketStore storage.MarketStore
	silverStore storage.SilverRecordStore
	priceStore  storage.PricePointStore
	goldStore   storage.GoldFeatureStore
	cfg         config.Config
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RawStore    storage.RawObservationStore
	MarketStore storage.MarketStore
	SilverStore storage.SilverRecordStore
	PriceStore  storage.PricePointStore
	GoldStore   storage.GoldFeatureStore
	Config      config.Config
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		rawStore:    opts.RawStore,
		marketStore: opts.MarketStore,
		silverStore: opts.SilverStore,
		priceStore:  opts.PriceStore,
		goldStore:   opts.GoldStore,
		cfg:         opts.Config,
	}
}

// replay runs the full pipeline from the primary raw and market stores
// into fresh in-memory stores.
func (v *ReplayVerifier) replay(ctx context.Context) (storage.SilverRecordStore, storage.PricePointStore, storage.GoldFeatureStore, error) {
	scratchSilver := memory.NewSilverRecordStore()
	scratchPrice := memory.NewPricePointStore()
	scratchGold := memory.NewGoldFeatureStore()

	orch := orchestrator.New(orchestrator.Options{
		RawStore:    v.rawStore,
		MarketStore: v.marketStore,
		SilverStore: scratchSilver,
		PriceStore:  scratchPrice,
		GoldStore:   scratchGold,
		Config:      v.cfg,
	})
	if _, err := orch.Run(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("replay pipeline: %w", err)
	}
	return scratchSilver, scratchPrice, scratchGold, nil
}

// VerifyMarket verifies a single market's stored cohort against a replay.
func (v *ReplayVerifier) VerifyMarket(ctx context.Context, marketID string) (*VerificationResult, error) {
	scratchSilver, scratchPrice, scratchGold, err := v.replay(ctx)
	if err != nil {
		return nil, err
	}
	return v.compareMarket(ctx, marketID, scratchSilver, scratchPrice, scratchGold)
}

// VerifyAll verifies every market registered in the market store.
// The pipeline is replayed once; comparisons run against that single replay.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	markets, err := v.marketStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	scratchSilver, scratchPrice, scratchGold, err := v.replay(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{}
	for _, market := range markets {
		result, err := v.compareMarket(ctx, market.MarketID, scratchSilver, scratchPrice, scratchGold)
		if err != nil {
			return nil, fmt.Errorf("verify market %s: %w", market.MarketID, err)
		}
		report.TotalMarkets++
		if result.Match {
			report.MatchedMarkets++
		} else {
			report.DivergentMarkets++
		}
		report.Results = append(report.Results, *result)
	}
	return report, nil
}

// compareMarket compares one market's stored and replayed cohorts.
func (v *ReplayVerifier) compareMarket(
	ctx context.Context,
	marketID string,
	scratchSilver storage.SilverRecordStore,
	scratchPrice storage.PricePointStore,
	scratchGold storage.GoldFeatureStore,
) (*VerificationResult, error) {
	var divergences []FieldDivergence

	storedSilver, err := v.silverStore.GetByMarket(ctx, marketID, v.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load stored silver: %w", err)
	}
	replayedSilver, err := scratchSilver.GetByMarket(ctx, marketID, v.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load replayed silver: %w", err)
	}
	divergences = append(divergences, CompareSilverRecords(storedSilver, replayedSilver)...)

	storedPrices, err := v.priceStore.GetByMarketCommodity(ctx, marketID, v.cfg.Commodity, v.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load stored prices: %w", err)
	}
	replayedPrices, err := scratchPrice.GetByMarketCommodity(ctx, marketID, v.cfg.Commodity, v.cfg.SilverVersion)
	if err != nil {
		return nil, fmt.Errorf("load replayed prices: %w", err)
	}
	divergences = append(divergences, ComparePricePoints(storedPrices, replayedPrices)...)

	storedGold, err := v.goldStore.GetByMarket(ctx, marketID, v.cfg.FeatureVersion)
	if err != nil {
		return nil, fmt.Errorf("load stored gold: %w", err)
	}
	replayedGold, err := scratchGold.GetByMarket(ctx, marketID, v.cfg.FeatureVersion)
	if err != nil {
		return nil, fmt.Errorf("load replayed gold: %w", err)
	}
	divergences = append(divergences, CompareGoldRows(storedGold, replayedGold)...)

	return &VerificationResult{
		MarketID:    marketID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}
