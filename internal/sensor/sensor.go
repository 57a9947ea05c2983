// Package sensor abstracts the physical measurement inputs: a raw ADC
// reading from the moisture probe and a temperature reading.
package sensor

import (
	"math"
	"math/rand"
	"sync"
)

// Reader produces one raw sample and one temperature reading per call. The
// acquisition loop calls it once per tick.
type Reader interface {
	// ReadRaw returns the raw ADC value of the moisture probe.
	ReadRaw() (int, error)

	// ReadTemperature returns the soil temperature in degrees Celsius.
	ReadTemperature() (float64, error)
}

// =============================================================================
// Simulated Reader
// =============================================================================

// SimReader generates a deterministic drying curve with optional noise, for
// development and testing off real hardware. The raw value decays
// exponentially from wet toward dry between periodic rewetting events, which
// is the shape a capacitive probe produces in drying soil.
type SimReader struct {
	mu sync.Mutex

	// WetADC and DryADC bound the simulated probe output.
	WetADC int
	DryADC int

	// DryingTau controls how many reads one full dry-down takes.
	DryingTau float64

	// Noise is the +/- jitter applied to each raw reading.
	Noise int

	// TempC is the reported temperature, fixed until a real temperature
	// probe is wired.
	TempC float64

	rng   *rand.Rand
	reads int
}

// NewSimReader returns a simulator with calibration typical of a capacitive
// probe on a 12-bit ADC.
func NewSimReader(seed int64) *SimReader {
	return &SimReader{
		WetADC:    1200,
		DryADC:    3200,
		DryingTau: 360, // one dry-down per hour at a 10s cadence
		Noise:     12,
		TempC:     25.0,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// ReadRaw implements Reader.
func (r *SimReader) ReadRaw() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Exponential approach from wet to dry, restarting each cycle.
	phase := float64(r.reads) / r.DryingTau
	cycle := phase - math.Floor(phase)
	frac := 1 - math.Exp(-3*cycle)

	raw := r.WetADC + int(frac*float64(r.DryADC-r.WetADC))
	if r.Noise > 0 {
		raw += r.rng.Intn(2*r.Noise+1) - r.Noise
	}
	r.reads++

	return raw, nil
}

// ReadTemperature implements Reader.
func (r *SimReader) ReadTemperature() (float64, error) {
	return r.TempC, nil
}
