// Package store provides database operations for the agriscan daemon.
//
// This package owns the on-disk schema, durability mode, transactional batch
// writer, and query operations. It uses SQLite (via the CGO-free
// modernc.org/sqlite driver) as the backing database: a single file on flash
// media, journaled in WAL mode so that every committed transaction survives a
// power loss without paying a per-row fsync.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agriscan/agriscan/internal/logging"
)

var log = logging.Component("store")

// =============================================================================
// Store Configuration
// =============================================================================

// Config holds store configuration options.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// BusyTimeout is how long a connection waits on a locked database before
	// failing. Under WAL, readers never block the writer; this only covers
	// writer/writer contention at checkpoint time.
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections. WAL allows
	// query-surface reads to proceed while a batch transaction is open, so a
	// small pool is kept rather than a single shared connection.
	MaxOpenConns int

	// QueryTimeout is the default timeout for queries.
	QueryTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Path:         "agriscan.db",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
		QueryTimeout: 10 * time.Second,
	}
}

// =============================================================================
// Schema
// =============================================================================

// schemaSQL creates both tables and the timestamp index. It is idempotent and
// safe to run on every boot.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
	timestamp         INTEGER PRIMARY KEY,
	raw_adc           INTEGER,
	temp_c            REAL,
	theta             REAL,
	theta_fc          REAL,
	theta_refill      REAL,
	psi_kpa           REAL,
	aw_mm             REAL,
	fraction_depleted REAL,
	drying_rate       REAL,
	regime            TEXT,
	status            TEXT,
	urgency           TEXT,
	confidence        REAL,
	qc_valid          INTEGER,
	seq               INTEGER
);
CREATE INDEX IF NOT EXISTS idx_timestamp ON samples(timestamp);
CREATE TABLE IF NOT EXISTS calibration (
	version      INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    INTEGER,
	state        TEXT,
	theta_fc     REAL,
	theta_refill REAL,
	n_events     INTEGER,
	confidence   REAL,
	params_json  TEXT
);`

// insertSampleSQL is prepared once at startup and reused for every row of
// every batch, to avoid repeated parse overhead on constrained CPUs.
const insertSampleSQL = `
INSERT INTO samples (
	timestamp, raw_adc, temp_c, theta, theta_fc, theta_refill, psi_kpa, aw_mm,
	fraction_depleted, drying_rate, regime, status, urgency, confidence,
	qc_valid, seq
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// =============================================================================
// Store
// =============================================================================

// Store provides database operations.
//
// Store is safe for concurrent use: query-surface reads may interleave with
// the acquisition loop's batch writes, and WAL isolation guarantees a reader
// observes either the pre-transaction or post-transaction state, never a
// partial batch.
type Store struct {
	db         *sql.DB
	config     Config
	insertStmt *sql.Stmt

	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the database, enables WAL-mode durability, ensures
// the schema exists, and prepares the reusable insert statement. Any failure
// here is fatal to startup.
func Open(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?%s", cfg.Path, dsnParams(cfg))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	insertStmt, err := db.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	log.Info("store opened", "path", cfg.Path, "journal_mode", "wal")

	return &Store{
		db:         db,
		config:     cfg,
		insertStmt: insertStmt,
	}, nil
}

// dsnParams builds the per-connection pragma parameters. Pragmas are carried
// in the DSN so every pooled connection gets them, not just the first.
//
// synchronous=NORMAL is safe under WAL: a committed transaction survives an
// application or OS crash, and fsync cost is amortized to checkpoints.
func dsnParams(cfg Config) string {
	v := url.Values{}
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "synchronous(NORMAL)")
	v.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	return v.Encode()
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}

// DB returns the underlying database connection.
// Use with caution - prefer using Store methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// =============================================================================
// Transaction Support
// =============================================================================

// Transaction executes a function within a database transaction.
//
// If the function returns an error, the transaction is rolled back.
// If the function returns nil, the transaction is committed.
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	return s.TransactionContext(context.Background(), fn)
}

// TransactionContext executes a function within a database transaction with
// context support.
func (s *Store) TransactionContext(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// queryContext wraps ctx with the configured query timeout when the caller
// did not set a deadline of its own.
func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}
