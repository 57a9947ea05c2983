package batch

import (
	"context"
	"testing"

	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/store"
)

// recordingFlush captures flush calls and can be switched to fail.
type recordingFlush struct {
	calls   [][]store.Sample
	failing bool
}

func (r *recordingFlush) flush(_ context.Context, samples []store.Sample) error {
	if r.failing {
		return apperrors.ErrDatabase
	}
	batch := make([]store.Sample, len(samples))
	copy(batch, samples)
	r.calls = append(r.calls, batch)
	return nil
}

func sample(ts int64) store.Sample {
	return store.Sample{Timestamp: ts, Seq: ts}
}

func TestBatcher_FlushAtThreshold(t *testing.T) {
	rec := &recordingFlush{}
	b := New(6, rec.flush)
	ctx := context.Background()

	for ts := int64(1); ts <= 5; ts++ {
		if err := b.Append(ctx, sample(ts)); err != nil {
			t.Fatalf("append %d: %v", ts, err)
		}
	}
	if len(rec.calls) != 0 {
		t.Fatalf("no flush expected below threshold, got %d", len(rec.calls))
	}
	if b.Len() != 5 {
		t.Fatalf("expected 5 buffered, got %d", b.Len())
	}

	if err := b.Append(ctx, sample(6)); err != nil {
		t.Fatalf("append 6: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected exactly one flush, got %d", len(rec.calls))
	}
	if len(rec.calls[0]) != 6 {
		t.Fatalf("expected 6 samples in flush, got %d", len(rec.calls[0]))
	}
	for i, sm := range rec.calls[0] {
		if sm.Timestamp != int64(i+1) {
			t.Errorf("flush order broken at %d: ts=%d", i, sm.Timestamp)
		}
	}
	if b.Len() != 0 {
		t.Errorf("buffer not cleared after successful flush: %d", b.Len())
	}
}

func TestBatcher_RetainsOnFailedFlush(t *testing.T) {
	rec := &recordingFlush{failing: true}
	b := New(3, rec.flush)
	ctx := context.Background()

	for ts := int64(1); ts <= 2; ts++ {
		if err := b.Append(ctx, sample(ts)); err != nil {
			t.Fatalf("append %d: %v", ts, err)
		}
	}

	// Third append triggers a flush that fails: samples are not dropped.
	if err := b.Append(ctx, sample(3)); err == nil {
		t.Fatal("expected flush error")
	}
	if b.Len() != 3 {
		t.Fatalf("buffer must be retained on failed flush, got %d", b.Len())
	}

	// Store recovers: the retried flush on the next append drains everything.
	rec.failing = false
	if err := b.Append(ctx, sample(4)); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one successful flush, got %d", len(rec.calls))
	}
	if got := len(rec.calls[0]); got != 4 {
		t.Fatalf("expected all 4 retained samples flushed, got %d", got)
	}
	if b.Len() != 0 {
		t.Errorf("buffer not cleared: %d", b.Len())
	}
}

func TestBatcher_OverflowDropsAtTwiceThreshold(t *testing.T) {
	rec := &recordingFlush{failing: true}
	b := New(3, rec.flush)
	ctx := context.Background()

	// Fill to the 2B cap while the store is down. Every flush fails, every
	// sample is retained.
	for ts := int64(1); ts <= 6; ts++ {
		b.Append(ctx, sample(ts))
	}
	if b.Len() != 6 {
		t.Fatalf("expected 6 buffered at cap, got %d", b.Len())
	}

	// Beyond the cap: dropped, not buffered.
	err := b.Append(ctx, sample(7))
	if !apperrors.Is(err, apperrors.ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("overflow sample must not grow the buffer: %d", b.Len())
	}

	// Recovery: the next append first drains the backlog, then buffers the
	// new sample.
	rec.failing = false
	if err := b.Append(ctx, sample(8)); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	if len(rec.calls) != 1 || len(rec.calls[0]) != 6 {
		t.Fatalf("expected backlog of 6 flushed, got %v", rec.calls)
	}
	if b.Len() != 1 {
		t.Errorf("expected new sample buffered after drain, got %d", b.Len())
	}
}

func TestBatcher_FlushEmptyIsNoop(t *testing.T) {
	rec := &recordingFlush{}
	b := New(3, rec.flush)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("empty flush must not call the flush function")
	}
}
