// Package loader handles configuration file loading and validation.
//
// This package is responsible for:
//   - Loading the optional .env file
//   - Loading YAML configuration files
//   - Expanding environment variables
//   - Applying defaults and validating the result
package loader

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/agriscan/agriscan/config"
	apperrors "github.com/agriscan/agriscan/internal/errors"
)

// =============================================================================
// Config
// =============================================================================

// Config is the daemon's full configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Sampling SamplingConfig `yaml:"sampling"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Storage  StorageConfig  `yaml:"storage"`
	Model    ModelConfig    `yaml:"model"`
	HTTP     HTTPConfig     `yaml:"http"`
	Export   ExportConfig   `yaml:"export"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// SamplingConfig controls the acquisition cadence and batching policy.
type SamplingConfig struct {
	Interval  Duration `yaml:"interval"`
	BatchSize int      `yaml:"batch_size"`
}

// SensorConfig selects and tunes the measurement input.
type SensorConfig struct {
	ADCPin   int   `yaml:"adc_pin"`
	Simulate bool  `yaml:"simulate"`
	SimSeed  int64 `yaml:"sim_seed"`
}

// StorageConfig controls the persistence engine.
type StorageConfig struct {
	Path          string   `yaml:"path"`
	BusyTimeoutMs int      `yaml:"busy_timeout_ms"`
	RetentionDays int      `yaml:"retention_days"`
	PruneInterval Duration `yaml:"prune_interval"`
}

// ModelConfig locates the computation model script.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig controls the query surface.
type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir"`
}

// ExportConfig controls Parquet exports.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Sampling: SamplingConfig{
			Interval:  Duration(config.DefaultSampleInterval),
			BatchSize: config.DefaultBatchSize,
		},
		Sensor: SensorConfig{
			ADCPin:   config.DefaultADCPin,
			Simulate: true,
			SimSeed:  1,
		},
		Storage: StorageConfig{
			Path:          config.DefaultDatabasePath,
			BusyTimeoutMs: config.DefaultBusyTimeoutMs,
			RetentionDays: config.DefaultRetentionDays,
			PruneInterval: Duration(config.DefaultPruneInterval),
		},
		Model: ModelConfig{Path: config.DefaultModelPath},
		HTTP: HTTPConfig{
			Listen:    config.DefaultListenAddress,
			StaticDir: config.DefaultStaticDir,
		},
		Export: ExportConfig{Dir: config.DefaultExportDir},
	}
}

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file, starting from defaults.
// Environment variables referenced in the file are expanded; a .env file in
// the working directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Sampling.Interval.Duration() <= 0 {
		return apperrors.NewValidation("sampling.interval", "must be positive")
	}
	if c.Sampling.BatchSize <= 0 {
		return apperrors.NewValidation("sampling.batch_size", "must be positive")
	}
	if c.Storage.Path == "" {
		return apperrors.NewMissingField("storage.path")
	}
	if c.Storage.RetentionDays < 0 {
		return apperrors.NewValidation("storage.retention_days", "must not be negative")
	}
	if c.Model.Path == "" {
		return apperrors.NewMissingField("model.path")
	}
	if c.HTTP.Listen == "" {
		return apperrors.NewMissingField("http.listen")
	}
	return nil
}

// =============================================================================
// Custom Types
// =============================================================================

// Duration is a time.Duration that can be unmarshaled from YAML, either as a
// Go duration string ("10s") or as plain seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		var i int
		if err := unmarshal(&i); err != nil {
			return err
		}
		*d = Duration(time.Duration(i) * time.Second)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
