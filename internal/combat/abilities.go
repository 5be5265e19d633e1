package combat

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownAbility is returned for ability ids missing from the catalog
var ErrUnknownAbility = errors.New("unknown ability")

// AbilityKind selects how a cast is resolved
type AbilityKind int

const (
	KindStrike AbilityKind = 0 // instant shape test
	KindArea   AbilityKind = 1 // duration-bound ticking zone
	KindChain  AbilityKind = 2 // nearest-neighbour hops
	KindDash   AbilityKind = 3 // charge-gated movement
)

func (k AbilityKind) String() string {
	switch k {
	case KindStrike:
		return "strike"
	case KindArea:
		return "area"
	case KindChain:
		return "chain"
	case KindDash:
		return "dash"
	default:
		return "unknown"
	}
}

// Ability is the static definition of one spell or weapon skill
type Ability struct {
	ID        string
	Kind      AbilityKind
	Shape     Shape
	Range     float64 // reach, strip length or zone radius
	HalfAngle float64
	Width     float64
	Offset    float64 // zone placement ahead of the caster

	Damage    LevelTable
	Crit      *CritProfile // fixed ability-local profile; nil uses runes
	Knockback float64      // push strength along the knockback direction

	Charges ChargeConfig // zero Charges means the ability is never gated

	TickInterval time.Duration
	Duration     time.Duration

	Chain ChainConfig

	DashDistance float64
	DashDuration time.Duration

	Synced bool // broadcast a SyncEffect to remote clients on cast
}

// Gated reports whether casts draw from a charge track
func (a Ability) Gated() bool {
	return a.Charges.Charges > 0
}

// Ability ids shipped in the default catalog
const (
	AbilityFrostBreath    = "frost_breath"
	AbilitySwordSweep     = "sword_sweep"
	AbilityArcaneBeam     = "arcane_beam"
	AbilitySmiteNova      = "smite_nova"
	AbilityChainLightning = "chain_lightning"
	AbilityBlizzard       = "blizzard"
	AbilityInfernoRing    = "inferno_ring"
	AbilityShadowDash     = "shadow_dash"
)

// DefaultAbilities returns the shipped ability catalog keyed by id
func DefaultAbilities() map[string]Ability {
	list := []Ability{
		{
			ID: AbilityFrostBreath, Kind: KindStrike, Shape: ShapeCone,
			Range: 9, HalfAngle: 0.4 * math.Pi,
			Damage:  LevelTable{Values: []float64{31, 37, 43, 49, 55}, Default: 31},
			Charges: ChargeConfig{Charges: 1, Cooldown: 2 * time.Second},
		},
		{
			ID: AbilitySwordSweep, Kind: KindStrike, Shape: ShapeArc,
			Range: 4.5, HalfAngle: math.Pi / 3,
			Damage:    LevelTable{Values: []float64{40, 46, 52, 58, 64}, Default: 40},
			Knockback: 1.5,
			Charges:   ChargeConfig{Charges: 1, Cooldown: 700 * time.Millisecond},
		},
		{
			ID: AbilityArcaneBeam, Kind: KindStrike, Shape: ShapeStrip,
			Range: 20, Width: 0.8,
			Damage:  LevelTable{Default: 80},
			Crit:    &CritProfile{Chance: 0.15, Multiplier: 2.0},
			Charges: ChargeConfig{Charges: 1, Cooldown: 5 * time.Second},
			Synced:  true,
		},
		{
			ID: AbilitySmiteNova, Kind: KindStrike, Shape: ShapeRadius,
			Range:     6,
			Damage:    LevelTable{Default: 65},
			Crit:      &CritProfile{Chance: 0.10, Multiplier: 2.0},
			Knockback: 2,
			Charges:   ChargeConfig{Charges: 1, Cooldown: 8 * time.Second},
			Synced:    true,
		},
		{
			ID: AbilityChainLightning, Kind: KindChain,
			Chain: ChainConfig{
				Chance:     0.3,
				JumpRadius: 8,
				MaxJumps:   3,
				HopDamages: []int{23, 19, 17},
				HopDelay:   150 * time.Millisecond,
			},
			Synced: true,
		},
		{
			ID: AbilityBlizzard, Kind: KindArea, Shape: ShapeRadius,
			Range: 5, Offset: 6,
			Damage:       LevelTable{Default: 12},
			TickInterval: 500 * time.Millisecond,
			Duration:     6 * time.Second,
			Charges:      ChargeConfig{Charges: 1, Cooldown: 12 * time.Second},
			Synced:       true,
		},
		{
			ID: AbilityInfernoRing, Kind: KindArea, Shape: ShapeRadius,
			Range:        3.5,
			Damage:       LevelTable{Default: 6},
			TickInterval: 250 * time.Millisecond,
			Duration:     3 * time.Second,
			Charges:      ChargeConfig{Charges: 2, Cooldown: 9 * time.Second, GlobalCooldown: time.Second},
			Synced:       true,
		},
		{
			ID: AbilityShadowDash, Kind: KindDash,
			DashDistance: 6,
			DashDuration: 200 * time.Millisecond,
			Charges:      ChargeConfig{Charges: 3, Cooldown: 6 * time.Second, GlobalCooldown: 300 * time.Millisecond},
		},
	}
	out := make(map[string]Ability, len(list))
	for _, a := range list {
		out[a.ID] = a
	}
	return out
}

// BaseDamage returns the ability's base damage at level
func (a Ability) BaseDamage(level int) float64 {
	return a.Damage.At(level)
}

func lookupAbility(catalog map[string]Ability, id string) (Ability, error) {
	a, ok := catalog[id]
	if !ok {
		return Ability{}, fmt.Errorf("ability %q: %w", id, ErrUnknownAbility)
	}
	return a, nil
}
