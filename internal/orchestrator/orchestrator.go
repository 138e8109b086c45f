// Package orchestrator provides end-to-end pipeline orchestration.
// It coordinates: resolve → normalize → silver build → gold build,
// counting every record's disposition into the run manifest.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mandi-feature-lab/internal/config"
	"mandi-feature-lab/internal/gold"
	"mandi-feature-lab/internal/manifest"
	"mandi-feature-lab/internal/normalization"
	"mandi-feature-lab/internal/observability"
	"mandi-feature-lab/internal/resolve"
	"mandi-feature-lab/internal/silver"
	"mandi-feature-lab/internal/storage"
)

// Orchestrator coordinates the full pipeline execution.
// Flow: snapshot registry → resolve + normalize raw rows → per-market
// silver and gold builds on a bounded worker pool.
type Orchestrator struct {
	// Stores
	rawStore    storage.RawObservationStore
	marketStore storage.MarketStore
	silverStore storage.SilverRecordStore
	priceStore  storage.PricePointStore
	goldStore   storage.GoldFeatureStore

	cfg     config.Config
	verbose bool
}

// Options for creating an Orchestrator.
type Options struct {
	RawStore    storage.RawObservationStore
	MarketStore storage.MarketStore
	SilverStore storage.SilverRecordStore
	PriceStore  storage.PricePointStore
	GoldStore   storage.GoldFeatureStore

	Config  config.Config
	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		rawStore:    opts.RawStore,
		marketStore: opts.MarketStore,
		silverStore: opts.SilverStore,
		priceStore:  opts.PriceStore,
		goldStore:   opts.GoldStore,
		cfg:         opts.Config,
		verbose:     opts.Verbose,
	}
}

// marketBatch collects one market's normalized partials before the build.
type marketBatch struct {
	marketID string
	weather  []*normalization.WeatherPartial
	prices   []*normalization.PricePartial
}

// Run executes the full pipeline and returns the run manifest.
// Phases:
//  1. Snapshot the market registry
//  2. Resolve and normalize every raw observation
//  3. Build silver and gold per market on a worker pool
//
// Per-record failures (unresolved place, unknown unit) are counted, not
// fatal. A market already built at the configured versions is skipped.
func (o *Orchestrator) Run(ctx context.Context) (*manifest.Manifest, error) {
	m := manifest.New(o.cfg.SilverVersion, o.cfg.FeatureVersion, o.cfg.Commodity)
	started := time.Now()
	defer func() {
		m.Finish()
		o.recordMetrics(m, time.Since(started))
	}()

	// Phase 1: registry snapshot, fixed for the whole run.
	o.log("Phase 1: Snapshotting market registry...")
	registry, err := resolve.Snapshot(ctx, o.marketStore)
	if err != nil {
		return m, fmt.Errorf("phase 1 (registry snapshot) failed: %w", err)
	}
	o.log("  Registry holds %d markets", registry.Len())

	// Phase 2: resolve + normalize.
	o.log("Phase 2: Resolving and normalizing raw observations...")
	batches, err := o.normalizeAll(ctx, registry, m)
	if err != nil {
		return m, fmt.Errorf("phase 2 (normalize) failed: %w", err)
	}
	o.log("  %d observations -> %d markets (%d unresolved, %d unit warnings)",
		m.Counts.RawObservations, len(batches), m.Counts.Unresolved, m.Counts.UnitWarnings)

	// Phase 3: per-market builds.
	o.log("Phase 3: Building silver and gold tables (%d workers)...", o.cfg.Workers)
	if err := o.buildMarkets(ctx, batches, m); err != nil {
		return m, fmt.Errorf("phase 3 (market builds) failed: %w", err)
	}
	o.log("  %d silver records, %d price points, %d gold rows (%d markets skipped, %d failed)",
		m.Counts.SilverRecords, m.Counts.PricePoints, m.Counts.GoldRows,
		m.Counts.DuplicatesSkipped, m.Counts.MarketsFailed)

	o.log("Pipeline completed: %s", m.Summary())
	return m, nil
}

// normalizeAll resolves every raw observation to a market and converts it
// to canonical units, grouped per market. Unresolved rows are quarantined
// by counting; they never reach silver.
func (o *Orchestrator) normalizeAll(
	ctx context.Context,
	registry *resolve.Registry,
	m *manifest.Manifest,
) ([]*marketBatch, error) {
	observations, err := o.rawStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw observations: %w", err)
	}
	m.Counts.RawObservations = len(observations)

	resolver := resolve.NewResolver(registry, o.cfg.ResolverRadiusKm)
	byMarket := make(map[string]*marketBatch)

	for _, obs := range observations {
		marketID, err := resolver.Resolve(obs)
		if err != nil {
			if errors.Is(err, resolve.ErrUnresolvedEntity) {
				m.Counts.Unresolved++
				continue
			}
			return nil, fmt.Errorf("resolve row %s: %w", obs.RowID, err)
		}

		batch, ok := byMarket[marketID]
		if !ok {
			batch = &marketBatch{marketID: marketID}
			byMarket[marketID] = batch
		}

		var warnings []normalization.Warning
		if obs.SourceID.IsPriceSource() {
			var p *normalization.PricePartial
			p, warnings = normalization.NormalizePrice(obs, marketID)
			batch.prices = append(batch.prices, p)
		} else {
			var w *normalization.WeatherPartial
			w, warnings = normalization.NormalizeWeather(obs, marketID)
			batch.weather = append(batch.weather, w)
		}
		m.Counts.UnitWarnings += len(warnings)
		m.Counts.Processed++
	}

	// Deterministic build order regardless of map iteration.
	batches := make([]*marketBatch, 0, len(byMarket))
	for _, b := range byMarket {
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].marketID < batches[j].marketID })
	return batches, nil
}

// buildMarkets runs silver then gold for each market on a bounded pool.
// Markets are independent; the manifest is the only shared state.
func (o *Orchestrator) buildMarkets(ctx context.Context, batches []*marketBatch, m *manifest.Manifest) error {
	silverRunner := silver.NewRunner(silver.RunnerOptions{
		SilverStore: o.silverStore,
		PriceStore:  o.priceStore,
		Version:     o.cfg.SilverVersion,
		MaxGapDays:  o.cfg.MaxGapDays,
		Quality: silver.QualityConfig{
			WindowDays:        o.cfg.QualityWindowDays,
			OutlierStdDevs:    o.cfg.OutlierStdDevs,
			CoverageThreshold: o.cfg.CoverageThreshold,
			MinWindowObs:      silver.DefaultQualityConfig().MinWindowObs,
		},
	})
	goldRunner := gold.NewRunner(o.silverStore, o.priceStore, o.goldStore, gold.Config{
		SilverVersion:   o.cfg.SilverVersion,
		FeatureVersion:  o.cfg.FeatureVersion,
		HorizonDays:     o.cfg.HorizonDays,
		RainThresholdMm: o.cfg.RainThresholdMm,
	})

	var mu sync.Mutex // guards the manifest across workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for _, batch := range batches {
		g.Go(func() error {
			silverResult, err := silverRunner.BuildMarket(gctx, batch.weather, batch.prices)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				m.Counts.MarketsFailed++
				m.AddError("market %s: %v", batch.marketID, err)
				return nil
			}

			// An already-stored silver cohort must not block the gold
			// build: bumping only the feature version re-reads silver
			// and appends a fresh gold cohort.
			goldResult, goldErr := goldRunner.BuildMarket(gctx, batch.marketID, o.cfg.Commodity)

			mu.Lock()
			defer mu.Unlock()

			if !silverResult.RecordsSkipped {
				m.Counts.SilverRecords += len(silverResult.Records)
				m.Counts.Imputed += silverResult.Imputed
				m.Counts.GapTooLong += silverResult.GapTooLong
			}
			if !silverResult.PricesSkipped {
				m.Counts.PricePoints += len(silverResult.PricePoints)
			}

			if goldErr != nil {
				if errors.Is(goldErr, storage.ErrDuplicateKey) {
					m.Counts.DuplicatesSkipped++
					return nil
				}
				m.Counts.MarketsFailed++
				m.AddError("market %s: %v", batch.marketID, goldErr)
				return nil
			}

			m.Counts.GoldRows += goldResult.Rows
			m.Counts.NullLabels += goldResult.NullLabels
			return nil
		})
	}
	return g.Wait()
}

// recordMetrics publishes run counters to the default metrics instance.
func (o *Orchestrator) recordMetrics(m *manifest.Manifest, elapsed time.Duration) {
	mm := observability.DefaultMetrics
	mm.RawObservationsRead.Add(float64(m.Counts.RawObservations))
	mm.RecordsResolved.Add(float64(m.Counts.Processed))
	mm.RecordsUnresolved.Add(float64(m.Counts.Unresolved))
	mm.SilverRecordsStored.Add(float64(m.Counts.SilverRecords))
	mm.PricePointsStored.Add(float64(m.Counts.PricePoints))
	mm.RecordsImputed.Add(float64(m.Counts.Imputed))
	mm.GapDaysSkipped.Add(float64(m.Counts.GapTooLong))
	mm.GoldRowsStored.Add(float64(m.Counts.GoldRows))
	mm.NullLabels.Add(float64(m.Counts.NullLabels))
	mm.MarketsSkipped.Add(float64(m.Counts.DuplicatesSkipped))
	mm.MarketsFailed.Add(float64(m.Counts.MarketsFailed))

	status := "success"
	if m.Counts.MarketsFailed > 0 {
		status = "partial"
	}
	observability.RecordPipelineRun("full", status, elapsed.Seconds())
	if m.Counts.MarketsFailed == 0 {
		mm.LastSuccessfulRun.SetToCurrentTime()
	}
}

// log prints if verbose mode is enabled.
func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
