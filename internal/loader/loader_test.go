package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/agriscan/agriscan/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Sampling.Interval.Duration() != 10*time.Second {
		t.Errorf("default interval: %v", cfg.Sampling.Interval.Duration())
	}
	if cfg.Sampling.BatchSize != 6 {
		t.Errorf("default batch size: %d", cfg.Sampling.BatchSize)
	}
	if cfg.Storage.Path != "agriscan.db" {
		t.Errorf("default db path: %s", cfg.Storage.Path)
	}
	if cfg.Model.Path != "physics.js" {
		t.Errorf("default model path: %s", cfg.Model.Path)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
sampling:
  interval: 30s
  batch_size: 12
storage:
  path: /data/node.db
  retention_days: 7
http:
  listen: "0.0.0.0:9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Sampling.Interval.Duration() != 30*time.Second {
		t.Errorf("interval: %v", cfg.Sampling.Interval.Duration())
	}
	if cfg.Sampling.BatchSize != 12 {
		t.Errorf("batch size: %d", cfg.Sampling.BatchSize)
	}
	if cfg.Storage.Path != "/data/node.db" || cfg.Storage.RetentionDays != 7 {
		t.Errorf("storage: %+v", cfg.Storage)
	}
	if cfg.HTTP.Listen != "0.0.0.0:9090" {
		t.Errorf("listen: %s", cfg.HTTP.Listen)
	}
	// Untouched sections keep their defaults.
	if cfg.Export.Dir != "exports" {
		t.Errorf("export dir default lost: %s", cfg.Export.Dir)
	}
}

func TestLoad_IntervalAsSeconds(t *testing.T) {
	path := writeConfig(t, "sampling:\n  interval: 60\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sampling.Interval.Duration() != 60*time.Second {
		t.Errorf("plain integer should parse as seconds: %v",
			cfg.Sampling.Interval.Duration())
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("AGRISCAN_DB", "/mnt/sd/agriscan.db")
	path := writeConfig(t, "storage:\n  path: ${AGRISCAN_DB}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path != "/mnt/sd/agriscan.db" {
		t.Errorf("env not expanded: %s", cfg.Storage.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Sampling.Interval = 0 }},
		{"zero batch size", func(c *Config) { c.Sampling.BatchSize = 0 }},
		{"empty db path", func(c *Config) { c.Storage.Path = "" }},
		{"negative retention", func(c *Config) { c.Storage.RetentionDays = -1 }},
		{"empty model path", func(c *Config) { c.Model.Path = "" }},
		{"empty listen", func(c *Config) { c.HTTP.Listen = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperrors.IsValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	// main falls back to defaults on a missing file, so the sentinel must
	// survive wrapping.
	if !apperrors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
