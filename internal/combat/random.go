package combat

import (
	"math/rand"
	"time"
)

// Random is the source of every probabilistic decision in the engine: crit
// rolls, chain gates and drop rolls.
type Random interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// PRNG is a seeded Random so whole engine runs can be replayed.
type PRNG struct {
	rng *rand.Rand
}

// NewPRNG creates a seeded generator. A zero seed uses the current time.
func NewPRNG(seed int64) *PRNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PRNG{rng: rand.New(rand.NewSource(seed))}
}

func (p *PRNG) Float64() float64 {
	return p.rng.Float64()
}

// Intn returns a value in [0, n)
func (p *PRNG) Intn(n int) int {
	return p.rng.Intn(n)
}
