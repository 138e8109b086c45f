// Package main provides the replay verification entry point.
// Re-derives silver and gold cohorts from the stored raw observations
// and compares them field by field against what the databases hold.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mandi-feature-lab/internal/config"
	"mandi-feature-lab/internal/storage/clickhouse"
	"mandi-feature-lab/internal/storage/postgres"
	"mandi-feature-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML pipeline config (defaults used if empty)")
	postgresDSN := flag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL DSN for bronze/silver stores")
	clickhouseDSN := flag.String("clickhouse-dsn", envOr("CLICKHOUSE_DSN", ""), "ClickHouse DSN for the gold store")
	marketID := flag.String("market", "", "Verify a single market instead of all markets")
	showDivergences := flag.Int("show-divergences", 10, "Max divergences to print per market")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	if *postgresDSN == "" || *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: need -postgres-dsn and -clickhouse-dsn")
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	conn, err := clickhouse.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[verify] close clickhouse: %v", err)
		}
	}()

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		RawStore:    postgres.NewRawObservationStore(pool),
		MarketStore: postgres.NewMarketStore(pool),
		SilverStore: postgres.NewSilverRecordStore(pool),
		PriceStore:  postgres.NewPricePointStore(pool),
		GoldStore:   clickhouse.NewGoldFeatureStore(conn),
		Config:      cfg,
	})

	fmt.Println("=== Replay Verification ===")
	fmt.Printf("Cohort: %s\n\n", cfg.CohortKey())

	if *marketID != "" {
		result, err := verifier.VerifyMarket(ctx, *marketID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
			os.Exit(1)
		}
		printResult(result, *showDivergences)
		if !result.Match {
			os.Exit(1)
		}
		return
	}

	report, err := verifier.VerifyAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
		os.Exit(1)
	}

	for i := range report.Results {
		printResult(&report.Results[i], *showDivergences)
	}
	fmt.Printf("\nVerified %d markets: %d matched, %d divergent\n",
		report.TotalMarkets, report.MatchedMarkets, report.DivergentMarkets)
	if report.DivergentMarkets > 0 {
		os.Exit(1)
	}
}

func printResult(r *verification.VerificationResult, maxDivergences int) {
	if r.Match {
		fmt.Printf("  %s: OK\n", r.MarketID)
		return
	}
	fmt.Printf("  %s: %d divergences\n", r.MarketID, len(r.Divergences))
	for i, d := range r.Divergences {
		if i >= maxDivergences {
			fmt.Printf("    ... and %d more\n", len(r.Divergences)-maxDivergences)
			break
		}
		fmt.Printf("    %s %s: stored=%v replayed=%v\n", d.Key, d.Field, d.Expected, d.Actual)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
