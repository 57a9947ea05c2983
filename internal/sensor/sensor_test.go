package sensor

import "testing"

func TestSimReader_Bounds(t *testing.T) {
	r := NewSimReader(1)

	for i := 0; i < 1000; i++ {
		raw, err := r.ReadRaw()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		lo := r.WetADC - r.Noise
		hi := r.DryADC + r.Noise
		if raw < lo || raw > hi {
			t.Fatalf("read %d out of bounds: %d not in [%d, %d]", i, raw, lo, hi)
		}
	}
}

func TestSimReader_Deterministic(t *testing.T) {
	a := NewSimReader(42)
	b := NewSimReader(42)

	for i := 0; i < 100; i++ {
		ra, _ := a.ReadRaw()
		rb, _ := b.ReadRaw()
		if ra != rb {
			t.Fatalf("same seed must produce same sequence, diverged at %d: %d != %d", i, ra, rb)
		}
	}
}

func TestSimReader_Temperature(t *testing.T) {
	r := NewSimReader(1)
	temp, err := r.ReadTemperature()
	if err != nil {
		t.Fatalf("temperature: %v", err)
	}
	if temp != 25.0 {
		t.Errorf("expected stub temperature 25.0, got %v", temp)
	}
}

func TestSimReader_DryingTrend(t *testing.T) {
	r := NewSimReader(7)
	r.Noise = 0 // isolate the curve

	first, _ := r.ReadRaw()
	var last int
	// Stay inside one drying cycle.
	for i := 1; i < int(r.DryingTau)-1; i++ {
		last, _ = r.ReadRaw()
	}
	if last <= first {
		t.Errorf("raw value should rise as soil dries: first=%d last=%d", first, last)
	}
}
