package fixtures

import (
	"context"
	"errors"
	"testing"

	"mandi-feature-lab/internal/domain"
	"mandi-feature-lab/internal/storage"
	"mandi-feature-lab/internal/storage/memory"
)

func TestLoad_SeedsMarketsAndObservations(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	raw := memory.NewRawObservationStore()

	if err := Load(ctx, markets, raw); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ms, err := markets.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll markets: %v", err)
	}
	if len(ms) != 3 {
		t.Errorf("Expected 3 markets, got %d", len(ms))
	}

	obs, err := raw.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll observations: %v", err)
	}
	var weather, prices int
	for _, o := range obs {
		if o.SourceID.IsPriceSource() {
			prices++
			if o.Commodity != "Wheat" {
				t.Errorf("Price row %s has commodity %q", o.RowID, o.Commodity)
			}
		} else {
			weather++
		}
	}
	// 60 days per market minus a two-day outage each.
	if weather != 3*58 {
		t.Errorf("Expected 174 weather rows, got %d", weather)
	}
	if prices == 0 {
		t.Error("Expected price rows from the fixture feeds")
	}
}

func TestLoad_IsDeterministic(t *testing.T) {
	ctx := context.Background()

	ids := func() map[string]domain.Date {
		raw := memory.NewRawObservationStore()
		if err := Load(ctx, memory.NewMarketStore(), raw); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		obs, err := raw.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		out := make(map[string]domain.Date, len(obs))
		for _, o := range obs {
			out[o.RowID] = o.Date
		}
		return out
	}

	first, second := ids(), ids()
	if len(first) != len(second) {
		t.Fatalf("Run sizes differ: %d vs %d", len(first), len(second))
	}
	for id, d := range first {
		if second[id] != d {
			t.Errorf("Row %s moved from %d to %d across runs", id, d, second[id])
		}
	}
}

func TestLoad_RerunRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	markets := memory.NewMarketStore()
	raw := memory.NewRawObservationStore()

	if err := Load(ctx, markets, raw); err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	if err := Load(ctx, markets, raw); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected duplicate-key error on reload, got %v", err)
	}
}
