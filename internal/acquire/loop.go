// Package acquire drives the fixed-cadence measurement pipeline: read the
// sensors, run the computation model, batch the result, let the batcher
// decide when to flush.
//
// The whole write path (sensor read, model evaluation, batcher mutation and
// batch commit) runs on the loop goroutine, so none of those components need
// locking among themselves. Only the store is shared with the query surface,
// and it provides its own isolation.
package acquire

import (
	"context"
	"time"

	"github.com/agriscan/agriscan/config"
	"github.com/agriscan/agriscan/internal/batch"
	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/logging"
	"github.com/agriscan/agriscan/internal/metrics"
	"github.com/agriscan/agriscan/internal/model"
	"github.com/agriscan/agriscan/internal/sensor"
)

var log = logging.Component("acquire")

// Config holds acquisition loop configuration.
type Config struct {
	// Interval is the sampling cadence.
	Interval time.Duration

	// Reader supplies raw and temperature readings.
	Reader sensor.Reader

	// Bridge converts readings into samples.
	Bridge *model.Bridge

	// Batcher buffers samples and flushes them to storage.
	Batcher *batch.Batcher
}

// Loop is the fixed-interval driver of the write path.
type Loop struct {
	cfg Config
	seq int64

	// now is stubbed in tests.
	now func() time.Time
}

// New creates an acquisition Loop.
func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultSampleInterval
	}
	return &Loop{
		cfg: cfg,
		now: time.Now,
	}
}

// Run executes ticks until ctx is cancelled, then makes a best-effort final
// flush of whatever the batcher still holds. It never returns a tick error:
// per-tick failures are logged and the next tick proceeds.
func (l *Loop) Run(ctx context.Context) error {
	log.Info("acquisition loop started", "interval", l.cfg.Interval)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Samples still in the buffer would otherwise be lost; power
			// loss is the only accepted loss path.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := l.cfg.Batcher.Flush(flushCtx)
			cancel()
			if err != nil {
				log.Warn("final flush failed", "error", err)
			}
			log.Info("acquisition loop stopped", "samples", l.seq)
			return nil
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick executes one acquisition cycle. A sensor failure skips the tick (the
// missing sample is accepted as loss); a model failure still yields a sample,
// flagged qc_valid=false; a flush failure leaves the batch buffered for the
// next tick.
func (l *Loop) Tick(ctx context.Context) {
	raw, err := l.cfg.Reader.ReadRaw()
	if err != nil {
		log.Error("sensor read failed, tick skipped",
			"error", apperrors.Wrap(err, "read raw"))
		return
	}

	temp, err := l.cfg.Reader.ReadTemperature()
	if err != nil {
		log.Error("temperature read failed, tick skipped", "error", err)
		return
	}

	sm := l.cfg.Bridge.Process(raw, temp, l.now().Unix())
	l.seq++
	sm.Seq = l.seq
	metrics.SamplesAcquired.Inc()

	if err := l.cfg.Batcher.Append(ctx, sm); err != nil {
		// Already logged by the batcher; retried or dropped per its policy.
		return
	}
}

// Seq returns the number of samples produced so far.
func (l *Loop) Seq() int64 {
	return l.seq
}
