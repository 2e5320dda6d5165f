package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/voicelens/voicelens/pkg/screen"
)

// fileConfig is the YAML config file schema. Every field is optional
// and overrides the corresponding engine default.
type fileConfig struct {
	MinDuration    *float64 `yaml:"min_duration"`
	MinSNR         *float64 `yaml:"min_snr"`
	SegmentLength  *float64 `yaml:"segment_length"`
	SegmentOverlap *float64 `yaml:"segment_overlap"`
	Workers        *int     `yaml:"workers"`
	MinSamples     *int     `yaml:"min_samples"`
	MaxSamples     *int     `yaml:"max_samples"`
	Params         string   `yaml:"params"`
	StoreDir       string   `yaml:"store_dir"`
}

// loadConfig merges the optional YAML config file over the engine
// defaults and returns it together with the file-level params path and
// store directory.
func loadConfig() (screen.Config, string, string, error) {
	cfg := screen.DefaultConfig()
	if configPath == "" {
		return cfg, "", "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, "", "", fmt.Errorf("read config %s: %w", configPath, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, "", "", fmt.Errorf("parse config %s: %w", configPath, err)
	}

	if fc.MinDuration != nil {
		cfg.Validation.MinDuration = *fc.MinDuration
	}
	if fc.MinSNR != nil {
		cfg.Validation.MinSNR = *fc.MinSNR
	}
	if fc.SegmentLength != nil {
		cfg.Segment.Length = *fc.SegmentLength
	}
	if fc.SegmentOverlap != nil {
		cfg.Segment.Overlap = *fc.SegmentOverlap
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.MinSamples != nil {
		cfg.MinSamples = *fc.MinSamples
	}
	if fc.MaxSamples != nil {
		cfg.MaxSamples = *fc.MaxSamples
	}
	return cfg, fc.Params, fc.StoreDir, nil
}
