package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable threshold of one analysis run. It is passed
// by value into the pipeline, so re-analyzing the same validated stream with
// different thresholds never touches shared state.
type Config struct {
	// Validation thresholds.
	MinRecords          int     `yaml:"min_records"`           // minimum records per file
	MaxTimeGap          float64 `yaml:"max_time_gap"`          // seconds between consecutive records
	MaxTimeSpan         float64 `yaml:"max_time_span"`         // seconds first to last record
	SpeedCeiling        float64 `yaml:"speed_ceiling"`         // km/h sanity ceiling
	AccelCeiling        float64 `yaml:"accel_ceiling"`         // km/h/s, both signs
	LocationRateCeiling float64 `yaml:"location_rate_ceiling"` // km/h

	// Speed analysis.
	OverspeedThreshold float64 `yaml:"overspeed_threshold"` // km/h
	RapidChange        float64 `yaml:"rapid_change"`        // km/h/s, speed event trigger
	FluctuationStdDev  float64 `yaml:"fluctuation_std_dev"` // km/h
	FluctuationWindow  int     `yaml:"fluctuation_window"`  // samples

	// Correlation.
	TimeTolerance  float64 `yaml:"time_tolerance"`  // seconds
	SpeedTolerance float64 `yaml:"speed_tolerance"` // km/h
	GapThreshold   float64 `yaml:"gap_threshold"`   // seconds

	// Aggregation. Best-effort keeps the run alive when a single processor
	// fails and reports that section's error in the result instead.
	BestEffort bool `yaml:"best_effort"`
}

// Default returns the documented default thresholds.
func Default() Config {
	return Config{
		MinRecords:          10,
		MaxTimeGap:          300,
		MaxTimeSpan:         24 * 3600,
		SpeedCeiling:        200,
		AccelCeiling:        5,
		LocationRateCeiling: 3600,
		OverspeedThreshold:  90,
		RapidChange:         2.0,
		FluctuationStdDev:   5.0,
		FluctuationWindow:   5,
		TimeTolerance:       1.0,
		SpeedTolerance:      2.0,
		GapThreshold:        5.0,
	}
}

// Load reads a YAML config file over the defaults, so a file only needs the
// keys it overrides. The result is validated before use.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MinRecords < 1 {
		return fmt.Errorf("min_records must be at least 1, got %d", c.MinRecords)
	}
	positives := []struct {
		name  string
		value float64
	}{
		{"max_time_gap", c.MaxTimeGap},
		{"max_time_span", c.MaxTimeSpan},
		{"speed_ceiling", c.SpeedCeiling},
		{"accel_ceiling", c.AccelCeiling},
		{"location_rate_ceiling", c.LocationRateCeiling},
		{"overspeed_threshold", c.OverspeedThreshold},
		{"rapid_change", c.RapidChange},
		{"fluctuation_std_dev", c.FluctuationStdDev},
		{"time_tolerance", c.TimeTolerance},
		{"speed_tolerance", c.SpeedTolerance},
		{"gap_threshold", c.GapThreshold},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %g", p.name, p.value)
		}
	}
	if c.OverspeedThreshold > c.SpeedCeiling {
		return fmt.Errorf("overspeed_threshold %g exceeds speed_ceiling %g", c.OverspeedThreshold, c.SpeedCeiling)
	}
	if c.FluctuationWindow < 2 {
		return fmt.Errorf("fluctuation_window must be at least 2, got %d", c.FluctuationWindow)
	}
	return nil
}
