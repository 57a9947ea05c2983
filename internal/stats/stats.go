// Package stats computes summary statistics over a range of samples.
//
// Percentiles use DDSketch, which gives relative-accuracy quantiles in
// constant memory, so the summary path stays bounded the way range queries
// are.
package stats

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/agriscan/agriscan/internal/store"
)

// sketchAccuracy is the DDSketch relative accuracy for percentiles.
const sketchAccuracy = 0.01

// Summary holds aggregate statistics of theta over a sample range.
type Summary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

// Summarize computes a Summary of theta across samples. Samples that failed
// quality control are excluded so a run of model failures cannot skew the
// moisture statistics. An empty (or fully invalid) input yields a zero
// Summary.
func Summarize(samples []store.Sample) Summary {
	var s Summary

	sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
	if err != nil {
		// Only possible with an invalid accuracy constant.
		return s
	}

	s.Min = math.MaxFloat64
	s.Max = -math.MaxFloat64
	var sum float64

	for i := range samples {
		if !samples[i].QCValid {
			continue
		}
		v := samples[i].Theta
		s.Count++
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		// DDSketch rejects values at/below zero; theta is a fraction and a
		// zero reading carries no moisture information anyway.
		if v > 0 {
			sketch.Add(v)
		}
	}

	if s.Count == 0 {
		return Summary{}
	}

	s.Mean = sum / float64(s.Count)

	if p, err := sketch.GetValueAtQuantile(0.50); err == nil {
		s.P50 = p
	}
	if p, err := sketch.GetValueAtQuantile(0.95); err == nil {
		s.P95 = p
	}

	return s
}
