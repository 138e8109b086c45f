// Package main provides the pipeline entry point.
// Executes: resolve → normalize → silver build → gold build, then writes
// the run manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mandi-feature-lab/internal/config"
	"mandi-feature-lab/internal/fixtures"
	"mandi-feature-lab/internal/observability"
	"mandi-feature-lab/internal/orchestrator"
	"mandi-feature-lab/internal/storage"
	chstore "mandi-feature-lab/internal/storage/clickhouse"
	"mandi-feature-lab/internal/storage/memory"
	"mandi-feature-lab/internal/storage/migrations"
	"mandi-feature-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML pipeline config (defaults used if empty)")
	postgresDSN := flag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL DSN for bronze/silver stores")
	clickhouseDSN := flag.String("clickhouse-dsn", envOr("CLICKHOUSE_DSN", ""), "ClickHouse DSN for the gold store")
	useMemory := flag.Bool("use-memory", false, "Run against in-memory stores with fixture data")
	metricsAddr := flag.String("metrics-addr", "", "Address to serve /metrics on (disabled if empty)")
	manifestDir := flag.String("manifest-dir", "manifests", "Directory run manifests are written to")
	commodity := flag.String("commodity", "", "Commodity override for the gold build")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *commodity != "" {
		cfg.Commodity = *commodity
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	stores, closeStores, err := buildStores(ctx, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up stores: %v\n", err)
		os.Exit(1)
	}
	defer closeStores()

	if *useMemory {
		if err := fixtures.Load(ctx, stores.market, stores.raw); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("=== Feature Pipeline ===")
	fmt.Printf("Cohort: %s\n", cfg.CohortKey())

	orch := orchestrator.New(orchestrator.Options{
		RawStore:    stores.raw,
		MarketStore: stores.market,
		SilverStore: stores.silver,
		PriceStore:  stores.price,
		GoldStore:   stores.gold,
		Config:      cfg,
		Verbose:     *verbose,
	})

	m, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		if m != nil {
			if path, werr := m.Write(*manifestDir); werr == nil {
				fmt.Printf("Partial manifest written to %s\n", path)
			}
		}
		os.Exit(1)
	}

	path, err := m.Write(*manifestDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nPipeline completed:")
	fmt.Printf("  %s\n", m.Summary())
	fmt.Printf("  Manifest: %s\n", path)
	if len(m.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(m.Errors))
		for _, e := range m.Errors {
			fmt.Printf("    - %s\n", e)
		}
		os.Exit(1)
	}
}

// pipelineStores holds the five stores the orchestrator runs against.
type pipelineStores struct {
	raw    storage.RawObservationStore
	market storage.MarketStore
	silver storage.SilverRecordStore
	price  storage.PricePointStore
	gold   storage.GoldFeatureStore
}

// buildStores wires either in-memory stores or Postgres plus ClickHouse.
func buildStores(ctx context.Context, useMemory bool, postgresDSN, clickhouseDSN string) (*pipelineStores, func(), error) {
	if useMemory {
		return &pipelineStores{
			raw:    memory.NewRawObservationStore(),
			market: memory.NewMarketStore(),
			silver: memory.NewSilverRecordStore(),
			price:  memory.NewPricePointStore(),
			gold:   memory.NewGoldFeatureStore(),
		}, func() {}, nil
	}

	if postgresDSN == "" || clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("need -postgres-dsn and -clickhouse-dsn (or -use-memory)")
	}

	pool, err := postgres.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		if err := conn.Close(); err != nil {
			log.Printf("[pipeline] close clickhouse: %v", err)
		}
	}

	return &pipelineStores{
		raw:    postgres.NewRawObservationStore(pool),
		market: postgres.NewMarketStore(pool),
		silver: postgres.NewSilverRecordStore(pool),
		price:  postgres.NewPricePointStore(pool),
		gold:   chstore.NewGoldFeatureStore(conn),
	}, cleanup, nil
}

// serveMetrics exposes Prometheus metrics.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	log.Printf("[pipeline] serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[pipeline] metrics server: %v", err)
	}
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
