package manifest

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestManifest_WriteAndReload(t *testing.T) {
	m := New("silver_v1", "gold_v1", "wheat")
	m.Counts.RawObservations = 120
	m.Counts.Processed = 115
	m.Counts.Unresolved = 5
	m.Counts.GoldRows = 90
	m.AddError("market m042: %s", "load silver records: boom")
	m.Finish()

	dir := t.TempDir()
	path, err := m.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read back: %v", err)
	}
	var got Manifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.RunID != m.RunID {
		t.Errorf("Run id mismatch: %s vs %s", got.RunID, m.RunID)
	}
	if got.Counts != m.Counts {
		t.Errorf("Counts mismatch: %+v vs %+v", got.Counts, m.Counts)
	}
	if len(got.Errors) != 1 || !strings.Contains(got.Errors[0], "m042") {
		t.Errorf("Errors not preserved: %v", got.Errors)
	}
	if got.FinishedAt.Before(got.StartedAt) {
		t.Error("FinishedAt precedes StartedAt")
	}
}

func TestManifest_UniqueRunIDs(t *testing.T) {
	a := New("silver_v1", "gold_v1", "wheat")
	b := New("silver_v1", "gold_v1", "wheat")
	if a.RunID == b.RunID {
		t.Error("Run ids must be unique per invocation")
	}
}

func TestManifest_Summary(t *testing.T) {
	m := New("silver_v1", "gold_v1", "wheat")
	m.Counts.RawObservations = 10
	m.Counts.Processed = 9
	m.Counts.Unresolved = 1

	s := m.Summary()
	if !strings.Contains(s, "10 raw") || !strings.Contains(s, "9 processed") {
		t.Errorf("Summary missing counts: %s", s)
	}
	if !strings.Contains(s, m.RunID) {
		t.Error("Summary must name the run id")
	}
}
