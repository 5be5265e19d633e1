package combat

// RuneKind identifies which buff counter a rune feeds
type RuneKind int

const (
	RuneCritChance RuneKind = 0
	RuneCritDamage RuneKind = 1
)

func (k RuneKind) String() string {
	if k == RuneCritDamage {
		return "crit_damage"
	}
	return "crit_chance"
}

// RunePickupRadius is how close the player must be to collect a rune
const RunePickupRadius = 2.5

// RuneConfig holds the buff curve
type RuneConfig struct {
	BaseChance        float64
	ChancePerRune     float64
	BaseMultiplier    float64
	MultiplierPerRune float64
	PickupRadius      float64
}

// DefaultRuneConfig returns the shipped buff curve
func DefaultRuneConfig() RuneConfig {
	return RuneConfig{
		BaseChance:        0.10,
		ChancePerRune:     0.03,
		BaseMultiplier:    2.0,
		MultiplierPerRune: 0.15,
		PickupRadius:      RunePickupRadius,
	}
}

// RunePickup is a collectible lying in the world
type RunePickup struct {
	ID       string
	Kind     RuneKind
	Position Vec3
	removed  bool
}

// NewRunePickup spawns a rune at pos
func NewRunePickup(id string, kind RuneKind, pos Vec3) *RunePickup {
	return &RunePickup{ID: id, Kind: kind, Position: pos}
}

// Removed reports whether the rune has been collected
func (p *RunePickup) Removed() bool {
	return p.removed
}

// RuneState aggregates collected runes into the global crit profile. It has
// a single owner and is not safe for concurrent use.
type RuneState struct {
	cfg                 RuneConfig
	criticalRuneCount   int
	critDamageRuneCount int
}

// NewRuneState creates an empty rune state
func NewRuneState(cfg RuneConfig) *RuneState {
	return &RuneState{cfg: cfg}
}

// CriticalRuneCount returns the number of crit-chance runes collected
func (s *RuneState) CriticalRuneCount() int {
	return s.criticalRuneCount
}

// CritDamageRuneCount returns the number of crit-damage runes collected
func (s *RuneState) CritDamageRuneCount() int {
	return s.critDamageRuneCount
}

// CriticalChance returns the derived crit chance, clamped to [0,1]
func (s *RuneState) CriticalChance() float64 {
	return Clamp(s.cfg.BaseChance+float64(s.criticalRuneCount)*s.cfg.ChancePerRune, 0, 1)
}

// CriticalDamageMultiplier returns the derived crit multiplier
func (s *RuneState) CriticalDamageMultiplier() float64 {
	return s.cfg.BaseMultiplier + float64(s.critDamageRuneCount)*s.cfg.MultiplierPerRune
}

// Profile returns the crit profile used by abilities without an override
func (s *RuneState) Profile() CritProfile {
	return CritProfile{Chance: s.CriticalChance(), Multiplier: s.CriticalDamageMultiplier()}
}

// Collect consumes the rune if the player stands within the pickup radius.
// The rune's removal and the counter increment happen together, so a rune
// counts at most once.
func (s *RuneState) Collect(p *RunePickup, player Vec3) bool {
	if p == nil || p.removed {
		return false
	}
	if !InRadius(p.Position, player, s.cfg.PickupRadius) {
		return false
	}
	p.removed = true
	switch p.Kind {
	case RuneCritDamage:
		s.critDamageRuneCount++
	default:
		s.criticalRuneCount++
	}
	return true
}

// CollectNearby runs Collect over pickups and returns the collected runes
func (s *RuneState) CollectNearby(pickups []*RunePickup, player Vec3) []*RunePickup {
	var got []*RunePickup
	for _, p := range pickups {
		if s.Collect(p, player) {
			got = append(got, p)
		}
	}
	return got
}

// Reset clears both counters, e.g. on game restart
func (s *RuneState) Reset() {
	s.criticalRuneCount = 0
	s.critDamageRuneCount = 0
}

// DropTable maps an enemy-type tag to the probability that a defeated enemy
// of that type yields a rune.
type DropTable map[string]float64

// DefaultDropTable returns the shipped drop rates
func DefaultDropTable() DropTable {
	return DropTable{
		"skeleton":      0.05,
		"skeletal_mage": 0.08,
		"abomination":   0.25,
		"reaper":        0.20,
		"fallen_titan":  1.0,
		"ascendant":     0.35,
		"death_knight":  0.30,
		"boss":          1.0,
	}
}

// Rate returns the drop probability for kind, clamped to [0,1]. Unknown kinds
// never drop.
func (t DropTable) Rate(kind string) float64 {
	r, ok := t[kind]
	if !ok {
		return 0
	}
	return Clamp(r, 0, 1)
}

// Roll decides whether a defeated enemy of kind yields a rune
func (t DropTable) Roll(kind string, rng Random) bool {
	rate := t.Rate(kind)
	if rate <= 0 {
		return false
	}
	return rng.Float64() < rate
}

// RuneForDrop picks which rune a drop yields; kinds alternate by drop count.
func RuneForDrop(dropIndex int) RuneKind {
	if dropIndex%2 == 1 {
		return RuneCritDamage
	}
	return RuneCritChance
}
