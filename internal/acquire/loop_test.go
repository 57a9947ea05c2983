package acquire

import (
	"context"
	"testing"
	"time"

	"github.com/agriscan/agriscan/internal/batch"
	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/model"
	"github.com/agriscan/agriscan/internal/store"
)

// fakeReader returns scripted readings.
type fakeReader struct {
	raws    []int
	idx     int
	rawErr  error
	tempErr error
}

func (f *fakeReader) ReadRaw() (int, error) {
	if f.rawErr != nil {
		return 0, f.rawErr
	}
	raw := f.raws[f.idx%len(f.raws)]
	f.idx++
	return raw, nil
}

func (f *fakeReader) ReadTemperature() (float64, error) {
	if f.tempErr != nil {
		return 0, f.tempErr
	}
	return 25.0, nil
}

// flakyEngine fails on scripted evaluations.
type flakyEngine struct {
	calls    int
	failCall int // 1-based call number that fails; 0 never fails
}

func (e *flakyEngine) Evaluate(raw int, temp float64, ts int64) (*model.Result, error) {
	e.calls++
	if e.failCall == e.calls {
		return nil, apperrors.ErrModelEval
	}
	return &model.Result{Theta: 0.3, Status: "ok", Confidence: 0.9, QCValid: true}, nil
}

func newTestLoop(reader *fakeReader, engine model.Engine, flush batch.FlushFunc, threshold int) *Loop {
	l := New(Config{
		Interval: time.Second,
		Reader:   reader,
		Bridge:   model.NewBridge(engine),
		Batcher:  batch.New(threshold, flush),
	})
	// Deterministic timestamps, one second per tick.
	var ts int64 = 1700000000
	l.now = func() time.Time {
		ts++
		return time.Unix(ts, 0)
	}
	return l
}

func TestLoop_TickProducesSequencedSamples(t *testing.T) {
	var flushed []store.Sample
	flush := func(_ context.Context, samples []store.Sample) error {
		flushed = append(flushed, samples...)
		return nil
	}

	reader := &fakeReader{raws: []int{2000, 2100, 2200}}
	l := newTestLoop(reader, &flakyEngine{}, flush, 3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		l.Tick(ctx)
	}

	if len(flushed) != 3 {
		t.Fatalf("expected 3 samples flushed, got %d", len(flushed))
	}
	for i, sm := range flushed {
		if sm.Seq != int64(i+1) {
			t.Errorf("sequence broken at %d: seq=%d", i, sm.Seq)
		}
		if !sm.QCValid {
			t.Errorf("sample %d should be valid", i)
		}
	}
	if flushed[1].Timestamp <= flushed[0].Timestamp {
		t.Error("timestamps must advance per tick")
	}
	if flushed[0].RawADC != 2000 || flushed[1].RawADC != 2100 {
		t.Errorf("raw readings wrong: %+v", flushed)
	}
}

func TestLoop_ModelFailureDoesNotBlockNextTicks(t *testing.T) {
	var flushed []store.Sample
	flush := func(_ context.Context, samples []store.Sample) error {
		flushed = append(flushed, samples...)
		return nil
	}

	reader := &fakeReader{raws: []int{2000}}
	l := newTestLoop(reader, &flakyEngine{failCall: 2}, flush, 3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		l.Tick(ctx)
	}

	if len(flushed) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(flushed))
	}
	if !flushed[0].QCValid || flushed[1].QCValid || !flushed[2].QCValid {
		t.Errorf("only the failing tick should be invalid: %v %v %v",
			flushed[0].QCValid, flushed[1].QCValid, flushed[2].QCValid)
	}
	// The failed tick still produced a well-formed record.
	if flushed[1].RawADC != 2000 || flushed[1].Seq != 2 {
		t.Errorf("invalid sample malformed: %+v", flushed[1])
	}
}

func TestLoop_SensorFailureSkipsTick(t *testing.T) {
	var flushed []store.Sample
	flush := func(_ context.Context, samples []store.Sample) error {
		flushed = append(flushed, samples...)
		return nil
	}

	reader := &fakeReader{raws: []int{2000}, rawErr: apperrors.ErrSensorRead}
	l := newTestLoop(reader, &flakyEngine{}, flush, 1)

	l.Tick(context.Background())

	if len(flushed) != 0 {
		t.Fatalf("a failed sensor read must not produce a sample, got %d", len(flushed))
	}
	if l.Seq() != 0 {
		t.Errorf("skipped tick must not consume a sequence number, got %d", l.Seq())
	}
}

func TestLoop_RunFlushesOnShutdown(t *testing.T) {
	var flushed []store.Sample
	flush := func(_ context.Context, samples []store.Sample) error {
		flushed = append(flushed, samples...)
		return nil
	}

	reader := &fakeReader{raws: []int{2000}}
	// Threshold high enough that ticks alone never flush.
	l := newTestLoop(reader, &flakyEngine{}, flush, 100)

	ctx := context.Background()
	l.Tick(ctx)
	l.Tick(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Run(runCtx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(flushed) != 2 {
		t.Fatalf("expected buffered samples flushed on shutdown, got %d", len(flushed))
	}
}
