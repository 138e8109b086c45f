package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"mandi-feature-lab/internal/domain"
)

// ComputeSilverID computes a deterministic silver record id using SHA256.
// Formula: SHA256(market_id|date|version)
// Returns hex-encoded hash (64 characters).
func ComputeSilverID(marketID string, date domain.Date, version string) string {
	data := fmt.Sprintf("%s|%s|%s", marketID, date.String(), version)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputePriceID computes a deterministic price point id using SHA256.
// Formula: SHA256(market_id|commodity|date|source_id|version)
func ComputePriceID(marketID, commodity string, date domain.Date, source domain.SourceID, version string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s", marketID, commodity, date.String(), string(source), version)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeGoldID computes a deterministic gold feature row id using SHA256.
// Formula: SHA256(market_id|date|feature_version)
func ComputeGoldID(marketID string, date domain.Date, featureVersion string) string {
	data := fmt.Sprintf("%s|%s|%s", marketID, date.String(), featureVersion)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ImputedTag returns the synthetic lineage tag attached to gap-filled
// records, alongside the ids of the two bounding real records.
func ImputedTag(marketID string, date domain.Date) string {
	return fmt.Sprintf("imputed:%s:%s", marketID, date.String())
}
