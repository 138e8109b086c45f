package domain

import "testing"

func TestLineage_CanonicalString(t *testing.T) {
	a := NewLineage("row_c", "row_a", "row_b")
	b := NewLineage("row_b", "row_a", "row_c")

	if a.String() != "row_a|row_b|row_c" {
		t.Errorf("Expected sorted canonical form, got %q", a.String())
	}
	if a.String() != b.String() {
		t.Errorf("Insertion order changed serialization: %q vs %q", a.String(), b.String())
	}
}

func TestLineage_UnionCommutative(t *testing.T) {
	a := NewLineage("r1", "r2")
	b := NewLineage("r2", "r3")

	ab := a.Union(b)
	ba := b.Union(a)

	if ab.String() != ba.String() {
		t.Errorf("Union not commutative: %q vs %q", ab.String(), ba.String())
	}
	if ab.Len() != 3 {
		t.Errorf("Expected 3 distinct ids, got %d", ab.Len())
	}
}

func TestLineage_ParseRoundTrip(t *testing.T) {
	l := NewLineage("x", "y")
	parsed := ParseLineage(l.String())
	if parsed.String() != l.String() {
		t.Errorf("Round trip mismatch: %q vs %q", parsed.String(), l.String())
	}
	if ParseLineage("").Len() != 0 {
		t.Error("Empty string should parse to empty lineage")
	}
}

func TestLineage_IgnoresEmptyIDs(t *testing.T) {
	l := NewLineage("", "r1")
	if l.Len() != 1 {
		t.Errorf("Expected empty ids to be dropped, got %d members", l.Len())
	}
}
