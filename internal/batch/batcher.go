// Package batch accumulates samples in memory and releases them to storage
// once a size threshold is reached.
//
// The batcher is the only component holding unflushed state: its contents are
// lost on power loss, bounding worst-case data loss to the overflow cap.
package batch

import (
	"context"

	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/logging"
	"github.com/agriscan/agriscan/internal/metrics"
	"github.com/agriscan/agriscan/internal/store"
)

var log = logging.Component("batch")

// FlushFunc commits a full batch in one transaction. It must either commit
// every row (duplicates excepted) or fail as a whole.
type FlushFunc func(ctx context.Context, samples []store.Sample) error

// Batcher holds an ordered, append-only sequence of samples with a fixed
// flush threshold.
//
// Batcher is not safe for concurrent use; the acquisition loop is its sole
// owner.
type Batcher struct {
	threshold int
	flush     FlushFunc
	buf       []store.Sample
}

// New creates a Batcher that flushes via fn once threshold samples have
// accumulated.
func New(threshold int, fn FlushFunc) *Batcher {
	if threshold <= 0 {
		threshold = 1
	}
	return &Batcher{
		threshold: threshold,
		flush:     fn,
		buf:       make([]store.Sample, 0, threshold),
	}
}

// Len returns the number of buffered samples.
func (b *Batcher) Len() int {
	return len(b.buf)
}

// Append adds a sample to the tail and flushes when the threshold is
// reached. On a failed flush the buffer is retained and the error returned;
// the caller retries by appending (or calling Flush) on the next tick.
//
// Growth is capped at twice the threshold: beyond that, new samples are
// logged and discarded until a flush succeeds, so memory stays bounded while
// the store is unavailable.
func (b *Batcher) Append(ctx context.Context, sm store.Sample) error {
	if len(b.buf) >= 2*b.threshold {
		// One more flush attempt before giving up on the sample: the store
		// may have recovered since the last tick.
		if err := b.Flush(ctx); err != nil {
			metrics.SamplesDropped.Inc()
			log.Warn("buffer full, sample dropped",
				"timestamp", sm.Timestamp, "seq", sm.Seq, "buffered", len(b.buf))
			return apperrors.ErrBufferFull
		}
	}

	b.buf = append(b.buf, sm)

	if len(b.buf) >= b.threshold {
		return b.Flush(ctx)
	}
	return nil
}

// Flush hands the buffered samples to the flush function and clears the
// buffer only on a successful commit. Flushing an empty buffer is a no-op.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}

	if err := b.flush(ctx, b.buf); err != nil {
		log.Warn("flush failed, batch retained", "buffered", len(b.buf), "error", err)
		return err
	}

	log.Debug("batch flushed", "rows", len(b.buf))
	b.buf = b.buf[:0]
	return nil
}
