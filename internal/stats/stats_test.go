package stats

import (
	"math"
	"testing"

	"github.com/agriscan/agriscan/internal/store"
)

func valid(theta float64) store.Sample {
	return store.Sample{Theta: theta, QCValid: true}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.Min != 0 || s.Max != 0 || s.Mean != 0 {
		t.Errorf("empty input must yield zero summary: %+v", s)
	}
}

func TestSummarize_Basic(t *testing.T) {
	samples := []store.Sample{
		valid(0.20), valid(0.25), valid(0.30), valid(0.35), valid(0.40),
	}

	s := Summarize(samples)

	if s.Count != 5 {
		t.Fatalf("count: expected 5, got %d", s.Count)
	}
	if s.Min != 0.20 || s.Max != 0.40 {
		t.Errorf("min/max wrong: %+v", s)
	}
	if math.Abs(s.Mean-0.30) > 1e-9 {
		t.Errorf("mean: expected 0.30, got %v", s.Mean)
	}
	// DDSketch guarantees 1% relative accuracy.
	if math.Abs(s.P50-0.30)/0.30 > 0.02 {
		t.Errorf("p50 outside accuracy bound: %v", s.P50)
	}
	if math.Abs(s.P95-0.40)/0.40 > 0.02 {
		t.Errorf("p95 outside accuracy bound: %v", s.P95)
	}
}

func TestSummarize_ExcludesInvalidSamples(t *testing.T) {
	samples := []store.Sample{
		valid(0.30),
		{Theta: 0, QCValid: false}, // failed model evaluation
		valid(0.32),
	}

	s := Summarize(samples)

	if s.Count != 2 {
		t.Fatalf("invalid samples must be excluded: count=%d", s.Count)
	}
	if s.Min != 0.30 {
		t.Errorf("min skewed by invalid sample: %v", s.Min)
	}
}

func TestSummarize_AllInvalid(t *testing.T) {
	samples := []store.Sample{
		{QCValid: false}, {QCValid: false},
	}

	s := Summarize(samples)
	if s.Count != 0 || s.Min != 0 {
		t.Errorf("all-invalid input must yield zero summary: %+v", s)
	}
}
