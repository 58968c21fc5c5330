package config

import (
	"fmt"
	"os"

	"github.com/retailkit/poscanon/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// LocationsFile is the YAML document holding the location timezone table and
// optional threshold overrides. Example:
//
//	locations:
//	  - id: loc_001
//	    name: Columbus
//	    timezone: America/New_York
//	thresholds:
//	  void_spike_multiplier: 3.0
type LocationsFile struct {
	Locations  []pipeline.Location  `yaml:"locations"`
	Thresholds *pipeline.Thresholds `yaml:"thresholds"`
}

// LoadLocations reads and validates the locations YAML file.
func LoadLocations(path string) (*LocationsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}

	var file LocationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse locations file %s: %w", path, err)
	}

	if len(file.Locations) == 0 {
		return nil, fmt.Errorf("locations file %s defines no locations", path)
	}
	seen := make(map[string]bool, len(file.Locations))
	for _, loc := range file.Locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("locations file %s: location with empty id", path)
		}
		if loc.Timezone == "" {
			return nil, fmt.Errorf("locations file %s: location %q has no timezone", path, loc.ID)
		}
		if seen[loc.ID] {
			return nil, fmt.Errorf("locations file %s: duplicate location id %q", path, loc.ID)
		}
		seen[loc.ID] = true
	}

	return &file, nil
}

// MergeThresholds overlays the file's non-zero threshold overrides onto the
// base thresholds from the environment.
func (f *LocationsFile) MergeThresholds(base pipeline.Thresholds) pipeline.Thresholds {
	if f.Thresholds == nil {
		return base
	}
	merged := base
	if f.Thresholds.VoidSpikeMultiplier > 0 {
		merged.VoidSpikeMultiplier = f.Thresholds.VoidSpikeMultiplier
	}
	if f.Thresholds.HighDiscountThreshold > 0 {
		merged.HighDiscountThreshold = f.Thresholds.HighDiscountThreshold
	}
	if f.Thresholds.TaxMismatchTolerance > 0 {
		merged.TaxMismatchTolerance = f.Thresholds.TaxMismatchTolerance
	}
	if f.Thresholds.StaffVoidRateThreshold > 0 {
		merged.StaffVoidRateThreshold = f.Thresholds.StaffVoidRateThreshold
	}
	return merged
}
