package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voicelens/voicelens/pkg/baseline"
)

func TestLoadConfigDefaults(t *testing.T) {
	configPath = ""
	cfg, params, storeDir, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Validation.MinDuration != 10.0 {
		t.Errorf("MinDuration = %f, want 10.0", cfg.Validation.MinDuration)
	}
	if cfg.MinSamples != baseline.DefaultMinSamples {
		t.Errorf("MinSamples = %d, want %d", cfg.MinSamples, baseline.DefaultMinSamples)
	}
	if params != "" || storeDir != "" {
		t.Errorf("params = %q, storeDir = %q, want empty", params, storeDir)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `min_duration: 8.0
segment_length: 4.0
workers: 2
min_samples: 5
params: /opt/voicelens/params.msgpack
store_dir: /var/lib/voicelens
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = path
	t.Cleanup(func() { configPath = "" })

	cfg, params, storeDir, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Validation.MinDuration != 8.0 {
		t.Errorf("MinDuration = %f, want 8.0", cfg.Validation.MinDuration)
	}
	if cfg.Segment.Length != 4.0 {
		t.Errorf("Segment.Length = %f, want 4.0", cfg.Segment.Length)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.MinSamples != 5 {
		t.Errorf("MinSamples = %d, want 5", cfg.MinSamples)
	}
	// Untouched fields keep their defaults.
	if cfg.Validation.MinSNR != 10.0 {
		t.Errorf("MinSNR = %f, want 10.0", cfg.Validation.MinSNR)
	}
	if params != "/opt/voicelens/params.msgpack" {
		t.Errorf("params = %q", params)
	}
	if storeDir != "/var/lib/voicelens" {
		t.Errorf("storeDir = %q", storeDir)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = path
	t.Cleanup(func() { configPath = "" })

	if _, _, _, err := loadConfig(); err == nil {
		t.Fatal("loadConfig accepted malformed YAML")
	}
}
