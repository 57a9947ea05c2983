package store

import (
	"context"
	"database/sql"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/metrics"
)

// Sample is one sensor observation plus its derived agronomic state.
//
// Timestamp is the sole identity of a sample: re-inserting an existing
// timestamp is a constraint violation, not an update. Seq is a monotonic
// counter assigned by the acquisition loop, for gap detection independent of
// the wall clock.
type Sample struct {
	Timestamp        int64
	RawADC           int
	TempC            float64
	Theta            float64
	ThetaFC          float64
	ThetaRefill      float64
	PsiKPa           float64
	AwMM             float64
	FractionDepleted float64
	DryingRate       float64
	Regime           string
	Status           string
	Urgency          string
	Confidence       float64
	QCValid          bool
	Seq              int64
}

// MaxRangeRows caps range query results. The bound keeps query memory
// constant on a constrained device; callers page by advancing start.
const MaxRangeRows = 200

// =============================================================================
// Write Path
// =============================================================================

// WriteBatch inserts all samples in a single transaction using the reusable
// prepared insert statement, reset between rows.
//
// A duplicate timestamp is a per-row failure: the row is skipped and logged,
// and the rest of the batch still commits. Any other failure rolls the whole
// batch back; the caller retains the samples and retries on the next tick.
func (s *Store) WriteBatch(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	var skipped int

	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		stmt := tx.StmtContext(ctx, s.insertStmt)
		defer stmt.Close()

		for i := range samples {
			if err := insertSample(ctx, stmt, &samples[i]); err != nil {
				if isDuplicateKey(err) {
					skipped++
					metrics.DuplicatesSkipped.Inc()
					log.Warn("duplicate timestamp, row skipped",
						"timestamp", samples[i].Timestamp, "seq", samples[i].Seq)
					continue
				}
				return fmt.Errorf("insert sample ts=%d: %w", samples[i].Timestamp, err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.FlushFailures.Inc()
		return apperrors.Wrap(err, "write batch")
	}

	metrics.Flushes.Inc()
	metrics.SamplesPersisted.Add(float64(len(samples) - skipped))
	log.Debug("batch committed", "rows", len(samples)-skipped, "skipped", skipped)
	return nil
}

func insertSample(ctx context.Context, stmt *sql.Stmt, sm *Sample) error {
	_, err := stmt.ExecContext(ctx,
		sm.Timestamp, sm.RawADC, sm.TempC, sm.Theta, sm.ThetaFC, sm.ThetaRefill,
		sm.PsiKPa, sm.AwMM, sm.FractionDepleted, sm.DryingRate,
		sm.Regime, sm.Status, sm.Urgency, sm.Confidence,
		boolToInt(sm.QCValid), sm.Seq)
	return err
}

// isDuplicateKey reports whether err is a primary key violation on the
// samples table.
func isDuplicateKey(err error) bool {
	var serr *sqlite.Error
	if apperrors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Read Path
// =============================================================================

const sampleColumns = `timestamp, raw_adc, temp_c, theta, theta_fc,
	theta_refill, psi_kpa, aw_mm, fraction_depleted, drying_rate, regime,
	status, urgency, confidence, qc_valid, seq`

// LatestSample returns the sample with the maximum timestamp.
// Returns ErrNoSamples when the store is empty.
func (s *Store) LatestSample(ctx context.Context) (*Sample, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sampleColumns+` FROM samples ORDER BY timestamp DESC LIMIT 1`)

	sm, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoSamples
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "latest sample")
	}
	return sm, nil
}

// SamplesInRange returns samples with start <= timestamp <= end, ascending,
// capped at MaxRangeRows. A start greater than end yields an empty slice, not
// an error.
func (s *Store) SamplesInRange(ctx context.Context, start, end int64) ([]Sample, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sampleColumns+` FROM samples
		 WHERE timestamp BETWEEN ? AND ?
		 ORDER BY timestamp ASC LIMIT ?`,
		start, end, MaxRangeRows)
	if err != nil {
		return nil, apperrors.Wrap(err, "samples in range")
	}
	defer rows.Close()

	samples := make([]Sample, 0, 64)
	for rows.Next() {
		sm, err := scanSample(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "scan sample")
		}
		samples = append(samples, *sm)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "samples in range")
	}
	return samples, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanSample.
type scanner interface {
	Scan(dest ...any) error
}

func scanSample(sc scanner) (*Sample, error) {
	var sm Sample
	var qcValid int
	err := sc.Scan(
		&sm.Timestamp, &sm.RawADC, &sm.TempC, &sm.Theta, &sm.ThetaFC,
		&sm.ThetaRefill, &sm.PsiKPa, &sm.AwMM, &sm.FractionDepleted,
		&sm.DryingRate, &sm.Regime, &sm.Status, &sm.Urgency, &sm.Confidence,
		&qcValid, &sm.Seq)
	if err != nil {
		return nil, err
	}
	sm.QCValid = qcValid != 0
	return &sm, nil
}

// =============================================================================
// Maintenance
// =============================================================================

// PruneOlderThan deletes sample rows older than the retention window, in its
// own transaction so it never interleaves with an in-flight batch. Returns
// the number of rows deleted. days <= 0 is a no-op.
func (s *Store) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	cutoff := nowUnix() - int64(days)*86400

	var deleted int64
	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE timestamp < ?`, cutoff)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "prune samples")
	}

	if deleted > 0 {
		log.Info("pruned old samples", "rows", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
