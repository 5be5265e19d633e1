package combat

import "testing"

// seqRandom replays vals in order, wrapping around
type seqRandom struct {
	vals []float64
	i    int
}

func (r *seqRandom) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

// fixedRandom always returns the same sample
type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func TestPRNGSeedReplays(t *testing.T) {
	a := NewPRNG(42)
	b := NewPRNG(42)
	for i := 0; i < 100; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}
