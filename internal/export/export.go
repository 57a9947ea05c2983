// Package export writes sample history to Parquet files, so history pulled
// off the node can be analyzed with standard column-store tooling instead of
// paging the bounded HTTP range query.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/agriscan/agriscan/internal/logging"
	"github.com/agriscan/agriscan/internal/store"
)

var log = logging.Component("export")

// SampleRow represents a sample in Parquet format.
type SampleRow struct {
	Timestamp        int64   `parquet:"timestamp"`
	RawADC           int32   `parquet:"raw_adc"`
	TempC            float64 `parquet:"temp_c"`
	Theta            float64 `parquet:"theta"`
	ThetaFC          float64 `parquet:"theta_fc"`
	ThetaRefill      float64 `parquet:"theta_refill"`
	PsiKPa           float64 `parquet:"psi_kpa"`
	AwMM             float64 `parquet:"aw_mm"`
	FractionDepleted float64 `parquet:"fraction_depleted"`
	DryingRate       float64 `parquet:"drying_rate"`
	Regime           string  `parquet:"regime,optional,zstd"`
	Status           string  `parquet:"status,optional,zstd"`
	Urgency          string  `parquet:"urgency,optional,zstd"`
	Confidence       float64 `parquet:"confidence"`
	QCValid          bool    `parquet:"qc_valid"`
	Seq              int64   `parquet:"seq"`
}

// SampleToRow converts a store Sample to its Parquet representation.
func SampleToRow(s *store.Sample) SampleRow {
	return SampleRow{
		Timestamp:        s.Timestamp,
		RawADC:           int32(s.RawADC),
		TempC:            s.TempC,
		Theta:            s.Theta,
		ThetaFC:          s.ThetaFC,
		ThetaRefill:      s.ThetaRefill,
		PsiKPa:           s.PsiKPa,
		AwMM:             s.AwMM,
		FractionDepleted: s.FractionDepleted,
		DryingRate:       s.DryingRate,
		Regime:           s.Regime,
		Status:           s.Status,
		Urgency:          s.Urgency,
		Confidence:       s.Confidence,
		QCValid:          s.QCValid,
		Seq:              s.Seq,
	}
}

// Exporter writes sample ranges to Parquet files under a fixed directory.
type Exporter struct {
	store *store.Store
	dir   string
}

// New creates an Exporter writing under dir.
func New(st *store.Store, dir string) *Exporter {
	return &Exporter{store: st, dir: dir}
}

// Result describes a completed export.
type Result struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// ExportRange writes the samples in [start, end] to a timestamped Parquet
// file. The range read pages through the store's bounded query, so export
// memory stays proportional to one page regardless of range size.
func (e *Exporter) ExportRange(ctx context.Context, start, end int64) (*Result, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("samples_%d_%d_%d.parquet", start, end, time.Now().Unix())
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}

	writer := parquet.NewGenericWriter[SampleRow](f,
		parquet.Compression(&parquet.Zstd))

	total := 0
	cursor := start
	for cursor <= end {
		samples, err := e.store.SamplesInRange(ctx, cursor, end)
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, err
		}
		if len(samples) == 0 {
			break
		}

		rows := make([]SampleRow, len(samples))
		for i := range samples {
			rows[i] = SampleToRow(&samples[i])
		}

		if _, err := writer.Write(rows); err != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("write rows: %w", err)
		}
		total += len(samples)

		// Page past the last row returned.
		cursor = samples[len(samples)-1].Timestamp + 1
	}

	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	log.Info("range exported", "path", path, "rows", total)
	return &Result{Path: path, Rows: total}, nil
}
