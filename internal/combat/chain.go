package combat

import (
	"math"
	"time"
)

// ChainConfig parameterizes a hop/chain ability
type ChainConfig struct {
	Chance     float64       // gate probability per cast
	JumpRadius float64       // max distance between consecutive hops
	MaxJumps   int           // total hops including the first
	HopDamages []int         // damage per hop index; last entry repeats
	HopDelay   time.Duration // stagger between hop damage applications
}

// HopDamage returns the damage for hop index i (0-based)
func (c ChainConfig) HopDamage(i int) int {
	if len(c.HopDamages) == 0 || i < 0 {
		return 0
	}
	if i >= len(c.HopDamages) {
		return c.HopDamages[len(c.HopDamages)-1]
	}
	return c.HopDamages[i]
}

// ChainState is scoped to one cast
type ChainState struct {
	HitSet map[string]struct{}
	Jumps  []Vec3
	Order  []string
}

func newChainState() *ChainState {
	return &ChainState{HitSet: make(map[string]struct{})}
}

// Has reports whether id was already hit in this chain
func (s *ChainState) Has(id string) bool {
	_, ok := s.HitSet[id]
	return ok
}

func (s *ChainState) mark(a Actor) {
	s.HitSet[a.ID] = struct{}{}
	s.Jumps = append(s.Jumps, a.Position)
	s.Order = append(s.Order, a.ID)
}

// ChainHop is one selected step of a chain
type ChainHop struct {
	Index    int
	TargetID string
	Position Vec3
	Damage   int
	Delay    time.Duration
}

// ChainSelector walks nearest unvisited neighbours
type ChainSelector struct {
	rng Random
}

// NewChainSelector creates a selector gated by rng
func NewChainSelector(rng Random) *ChainSelector {
	return &ChainSelector{rng: rng}
}

// Select rolls the gate then computes every hop eagerly from origin. It
// returns false with no state when the gate fails or the first hop finds no
// target.
func (cs *ChainSelector) Select(cfg ChainConfig, origin Vec3, snap *Snapshot) (*ChainState, []ChainHop, bool) {
	if snap == nil || cfg.MaxJumps <= 0 || cfg.JumpRadius < 0 {
		return nil, nil, false
	}
	if !(cs.rng.Float64() < cfg.Chance) {
		return nil, nil, false
	}
	state := newChainState()
	var hops []ChainHop
	from := origin
	buf := make([]int, 0, 16)
	for i := 0; i < cfg.MaxJumps; i++ {
		next, ok := nearestUnvisited(snap, from, cfg.JumpRadius, state, buf[:0])
		if !ok {
			break
		}
		state.mark(next)
		hops = append(hops, ChainHop{
			Index:    i,
			TargetID: next.ID,
			Position: next.Position,
			Damage:   cfg.HopDamage(i),
			Delay:    cfg.HopDelay * time.Duration(i),
		})
		from = next.Position
	}
	if len(hops) == 0 {
		return nil, nil, false
	}
	return state, hops, true
}

// nearestUnvisited finds the closest targetable actor not in state within
// radius of from. Ties go to the earlier snapshot entry.
func nearestUnvisited(snap *Snapshot, from Vec3, radius float64, state *ChainState, buf []int) (Actor, bool) {
	actors := snap.Actors()
	best := -1
	bestD := math.Inf(1)
	limit := radius * radius
	for _, i := range snap.Near(from, radius, buf) {
		a := actors[i]
		if !a.Targetable() || state.Has(a.ID) {
			continue
		}
		d := a.Position.Sub(from).LenSq()
		if d > limit {
			continue
		}
		if d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return Actor{}, false
	}
	return actors[best], true
}
