package gold

import (
	"math"
	"testing"

	"mandi-feature-lab/internal/domain"
)

func TestComputeLabel_SevenDayChange(t *testing.T) {
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-01", domain.SourceAgmarknet, 100.0),
		pricePoint("2025-06-08", domain.SourceAgmarknet, 107.0),
	}, "wheat")

	label := ComputeLabel(series, domain.MustDate("2025-06-01"), 7)
	if label == nil {
		t.Fatal("Expected a label, got nil")
	}
	if math.Abs(*label-0.07) > 1e-12 {
		t.Errorf("Expected 0.07, got %v", *label)
	}
}

func TestComputeLabel_MissingFutureIsNull(t *testing.T) {
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-01", domain.SourceAgmarknet, 100.0),
	}, "wheat")

	if label := ComputeLabel(series, domain.MustDate("2025-06-01"), 7); label != nil {
		t.Errorf("No price at horizon must produce nil label, got %v", *label)
	}
}

func TestComputeLabel_MissingBaseIsNull(t *testing.T) {
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-08", domain.SourceAgmarknet, 107.0),
	}, "wheat")

	if label := ComputeLabel(series, domain.MustDate("2025-06-01"), 7); label != nil {
		t.Errorf("No price at base date must produce nil label, got %v", *label)
	}
}

func TestComputeLabel_ZeroBaseIsNull(t *testing.T) {
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-01", domain.SourceAgmarknet, 0.0),
		pricePoint("2025-06-08", domain.SourceAgmarknet, 107.0),
	}, "wheat")

	if label := ComputeLabel(series, domain.MustDate("2025-06-01"), 7); label != nil {
		t.Error("Zero base price must not produce an infinite label")
	}
}

func TestPriceSeries_SourcePriority(t *testing.T) {
	// Same date from two feeds: the primary feed wins regardless of input order.
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-01", domain.SourceENAM, 30.0),
		pricePoint("2025-06-01", domain.SourceAgmarknet, 25.0),
	}, "wheat")

	v := series.At(domain.MustDate("2025-06-01"))
	if v == nil || *v != 25.0 {
		t.Errorf("Expected primary source value 25.0, got %v", v)
	}
}

func TestPriceSeries_FallbackFillsGaps(t *testing.T) {
	series := NewPriceSeries([]*domain.PricePoint{
		pricePoint("2025-06-01", domain.SourceAgmarknet, 25.0),
		pricePoint("2025-06-02", domain.SourceNCDEX, 26.0),
	}, "wheat")

	if v := series.At(domain.MustDate("2025-06-02")); v == nil || *v != 26.0 {
		t.Errorf("Fallback source should fill the missing date, got %v", v)
	}
}

func TestPriceSeries_FiltersOtherCommodities(t *testing.T) {
	p := pricePoint("2025-06-01", domain.SourceAgmarknet, 25.0)
	p.Commodity = "onion"

	series := NewPriceSeries([]*domain.PricePoint{p}, "wheat")
	if v := series.At(domain.MustDate("2025-06-01")); v != nil {
		t.Errorf("Series must only hold the requested commodity, got %v", *v)
	}
}

func TestPriceSeries_SkipsNilModal(t *testing.T) {
	p := pricePoint("2025-06-01", domain.SourceAgmarknet, 0)
	p.ModalInrKg = nil
	fallback := pricePoint("2025-06-01", domain.SourceENAM, 27.0)

	series := NewPriceSeries([]*domain.PricePoint{p, fallback}, "wheat")
	if v := series.At(domain.MustDate("2025-06-01")); v == nil || *v != 27.0 {
		t.Errorf("Nil modal from primary should fall through to ENAM, got %v", v)
	}
}
