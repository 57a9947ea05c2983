// Package config provides configuration defaults and utilities
// for the agriscan node daemon.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Sampling Defaults
// =============================================================================

const (
	// DefaultSampleInterval is the acquisition cadence: one sensor reading is
	// taken and processed per interval.
	// Override via config: sampling.interval
	DefaultSampleInterval = 10 * time.Second

	// DefaultBatchSize is the number of samples accumulated in memory before
	// a batch is flushed to the database in a single transaction.
	// Override via config: sampling.batch_size
	DefaultBatchSize = 6

	// DefaultADCPin is the analog input pin used for the moisture probe on
	// real hardware. Ignored by the simulated reader.
	// Override via config: sensor.adc_pin
	DefaultADCPin = 34
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDatabasePath is the SQLite database file location.
	// Override via config: storage.path
	DefaultDatabasePath = "agriscan.db"

	// DefaultBusyTimeoutMs is the SQLite busy timeout. Reads from the HTTP
	// surface can briefly contend with the batch writer; under WAL this
	// window is short.
	// Override via config: storage.busy_timeout_ms
	DefaultBusyTimeoutMs = 5000

	// DefaultRetentionDays is how long sample rows are kept before the
	// retention janitor prunes them. Zero disables pruning.
	// Override via config: storage.retention_days
	DefaultRetentionDays = 30

	// DefaultPruneInterval is how often the retention janitor runs.
	// Override via config: storage.prune_interval
	DefaultPruneInterval = 24 * time.Hour
)

// =============================================================================
// Model Defaults
// =============================================================================

const (
	// DefaultModelPath is the physics model script location. The script is
	// loaded once at startup and is not reloaded after a load failure.
	// Override via config: model.path
	DefaultModelPath = "physics.js"

	// ModelEntryPoint is the global object and method the model script must
	// define: Physics.processSensorReading(raw, temp, ts).
	ModelEntryPoint = "Physics.processSensorReading"
)

// =============================================================================
// HTTP Defaults
// =============================================================================

const (
	// DefaultListenAddress is the HTTP query surface listen address.
	// Override via config: http.listen
	DefaultListenAddress = "0.0.0.0:8080"

	// DefaultStaticDir is the directory served at the site root (dashboard
	// assets). Empty disables static serving.
	// Override via config: http.static_dir
	DefaultStaticDir = "www"

	// DefaultShutdownTimeout is how long in-flight HTTP requests get to
	// complete during shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Export Defaults
// =============================================================================

const (
	// DefaultExportDir is where Parquet exports are written.
	// Override via config: export.dir
	DefaultExportDir = "exports"
)
