package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "github.com/agriscan/agriscan/internal/errors"
)

// nowUnix is stubbed in tests.
var nowUnix = func() int64 { return time.Now().Unix() }

// CalibrationSnapshot is a versioned record of calibration state. Versions
// are append-only and never mutated once written; the latest version is the
// active calibration.
type CalibrationSnapshot struct {
	Version     int64           `json:"version"`
	Timestamp   int64           `json:"timestamp"`
	State       string          `json:"state"`
	ThetaFC     float64         `json:"theta_fc"`
	ThetaRefill float64         `json:"theta_refill"`
	NEvents     int             `json:"n_events"`
	Confidence  float64         `json:"confidence"`
	Params      json.RawMessage `json:"params"`
}

// WriteCalibration appends a new calibration snapshot. The version is
// assigned by storage; the value in snap.Version is ignored. Returns the
// assigned version.
func (s *Store) WriteCalibration(ctx context.Context, snap *CalibrationSnapshot) (int64, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	if snap.Timestamp == 0 {
		snap.Timestamp = nowUnix()
	}
	params := snap.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	var version int64
	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO calibration (timestamp, state, theta_fc, theta_refill,
			                         n_events, confidence, params_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.Timestamp, snap.State, snap.ThetaFC, snap.ThetaRefill,
			snap.NEvents, snap.Confidence, string(params))
		if err != nil {
			return err
		}
		version, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "write calibration")
	}

	log.Info("calibration snapshot written", "version", version, "state", snap.State)
	return version, nil
}

// LatestCalibration returns the active calibration snapshot (the one with the
// maximum version). Returns ErrNoCalibration when none has been written.
func (s *Store) LatestCalibration(ctx context.Context) (*CalibrationSnapshot, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT version, timestamp, state, theta_fc, theta_refill, n_events,
		       confidence, params_json
		FROM calibration ORDER BY version DESC LIMIT 1`)

	var snap CalibrationSnapshot
	var params string
	err := row.Scan(&snap.Version, &snap.Timestamp, &snap.State, &snap.ThetaFC,
		&snap.ThetaRefill, &snap.NEvents, &snap.Confidence, &params)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoCalibration
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "latest calibration")
	}
	snap.Params = json.RawMessage(params)
	return &snap, nil
}

// LatestCalibrationJSON serializes the active calibration snapshot. An empty
// store yields "{}" rather than an error, so clients always get a well-formed
// document.
func (s *Store) LatestCalibrationJSON(ctx context.Context) (string, error) {
	snap, err := s.LatestCalibration(ctx)
	if apperrors.Is(err, apperrors.ErrNoCalibration) {
		return "{}", nil
	}
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", apperrors.Wrap(err, "marshal calibration")
	}
	return string(data), nil
}
