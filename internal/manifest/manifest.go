// Package manifest records what a pipeline run did: every record counted
// exactly once per disposition, keyed by a unique run id. Manifests are the
// audit trail for a cohort; they are written even when a run partially fails.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Counts holds per-disposition record tallies for one run.
// A raw observation lands in exactly one of: processed, unresolved,
// or unknown-unit-dropped counts tracked per variable by warnings.
type Counts struct {
	RawObservations   int `json:"raw_observations"`    // raw rows read
	Processed         int `json:"processed"`           // rows resolved and normalized
	Unresolved        int `json:"unresolved"`          // quarantined, no market match
	UnitWarnings      int `json:"unit_warnings"`       // variables nulled or dropped
	SilverRecords     int `json:"silver_records"`      // canonical weather rows stored
	PricePoints       int `json:"price_points"`        // canonical price rows stored
	Imputed           int `json:"imputed"`             // silver rows created by interpolation
	GapTooLong        int `json:"gap_too_long"`        // gap days left unfilled
	GoldRows          int `json:"gold_rows"`           // feature rows stored
	NullLabels        int `json:"null_labels"`         // feature rows without a label
	DuplicatesSkipped int `json:"duplicates_skipped"`  // markets whose gold cohort already existed at this feature version
	MarketsFailed     int `json:"markets_failed"`      // markets aborted by an error
}

// Manifest is the durable record of one pipeline run.
type Manifest struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	SilverVersion  string    `json:"silver_version"`
	FeatureVersion string    `json:"feature_version"`
	Commodity      string    `json:"commodity"`
	Counts         Counts    `json:"counts"`
	Errors         []string  `json:"errors,omitempty"`
}

// New starts a manifest for a run. The run id is unique per invocation;
// outputs stay tied to versions, the manifest ties them to an execution.
func New(silverVersion, featureVersion, commodity string) *Manifest {
	return &Manifest{
		RunID:          uuid.New().String(),
		StartedAt:      time.Now().UTC(),
		SilverVersion:  silverVersion,
		FeatureVersion: featureVersion,
		Commodity:      commodity,
	}
}

// Finish stamps the completion time.
func (m *Manifest) Finish() {
	m.FinishedAt = time.Now().UTC()
}

// AddError appends a non-fatal per-market error.
func (m *Manifest) AddError(format string, args ...any) {
	m.Errors = append(m.Errors, fmt.Sprintf(format, args...))
}

// Write serializes the manifest as indented JSON into dir, named by run id.
// Returns the path written.
func (m *Manifest) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", m.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Summary renders a one-screen human summary for log output.
func (m *Manifest) Summary() string {
	return fmt.Sprintf(
		"run %s: %d raw -> %d processed (%d unresolved, %d unit warnings); "+
			"%d silver (%d imputed, %d gap days skipped), %d prices; "+
			"%d gold rows (%d null labels); %d duplicate markets skipped, %d failed",
		m.RunID,
		m.Counts.RawObservations, m.Counts.Processed, m.Counts.Unresolved, m.Counts.UnitWarnings,
		m.Counts.SilverRecords, m.Counts.Imputed, m.Counts.GapTooLong, m.Counts.PricePoints,
		m.Counts.GoldRows, m.Counts.NullLabels, m.Counts.DuplicatesSkipped, m.Counts.MarketsFailed,
	)
}
