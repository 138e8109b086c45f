// Package config loads pipeline parameters from a YAML file.
// Every knob that changes output semantics lives here so a cohort can be
// reproduced from the config file alone.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full pipeline configuration.
type Config struct {
	// Versions stamped on output cohorts.
	SilverVersion  string `yaml:"silver_version"`
	FeatureVersion string `yaml:"feature_version"`

	// Commodity the gold feature table is built for.
	Commodity string `yaml:"commodity"`

	// Entity resolution.
	ResolverRadiusKm float64 `yaml:"resolver_radius_km"`

	// Silver-layer parameters.
	MaxGapDays        int     `yaml:"max_gap_days"`
	QualityWindowDays int     `yaml:"quality_window_days"`
	OutlierStdDevs    float64 `yaml:"outlier_std_devs"`
	CoverageThreshold float64 `yaml:"coverage_threshold"`

	// Gold-layer parameters.
	HorizonDays     int     `yaml:"horizon_days"`
	RainThresholdMm float64 `yaml:"rain_threshold_mm"`

	// Execution.
	Workers int `yaml:"workers"`
}

// Default returns the standard pipeline parameters. Load starts from these
// so a config file only needs to name what it overrides.
func Default() Config {
	return Config{
		SilverVersion:     "silver_v1",
		FeatureVersion:    "gold_v1",
		Commodity:         "wheat",
		ResolverRadiusKm:  25.0,
		MaxGapDays:        2,
		QualityWindowDays: 30,
		OutlierStdDevs:    3.0,
		CoverageThreshold: 0.5,
		HorizonDays:       7,
		RainThresholdMm:   1.0,
		Workers:           4,
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects parameter combinations that would produce a
// non-reproducible or degenerate cohort.
func (c *Config) Validate() error {
	if c.SilverVersion == "" {
		return fmt.Errorf("silver_version cannot be empty")
	}
	if c.FeatureVersion == "" {
		return fmt.Errorf("feature_version cannot be empty")
	}
	if c.Commodity == "" {
		return fmt.Errorf("commodity cannot be empty")
	}
	if c.ResolverRadiusKm <= 0 {
		return fmt.Errorf("resolver_radius_km must be positive, got %v", c.ResolverRadiusKm)
	}
	if c.MaxGapDays < 0 {
		return fmt.Errorf("max_gap_days cannot be negative, got %d", c.MaxGapDays)
	}
	if c.QualityWindowDays <= 0 {
		return fmt.Errorf("quality_window_days must be positive, got %d", c.QualityWindowDays)
	}
	if c.OutlierStdDevs <= 0 {
		return fmt.Errorf("outlier_std_devs must be positive, got %v", c.OutlierStdDevs)
	}
	if c.CoverageThreshold < 0 || c.CoverageThreshold > 1 {
		return fmt.Errorf("coverage_threshold must be in [0,1], got %v", c.CoverageThreshold)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive, got %d", c.HorizonDays)
	}
	if c.RainThresholdMm < 0 {
		return fmt.Errorf("rain_threshold_mm cannot be negative, got %v", c.RainThresholdMm)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// CohortKey identifies the output cohort this config produces.
func (c *Config) CohortKey() string {
	return fmt.Sprintf("%s/%s/%s", c.SilverVersion, c.FeatureVersion, c.Commodity)
}
