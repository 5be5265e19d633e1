package combat

import "math"

// CritProfile is a critical-hit chance in [0,1] and the damage multiplier
// applied on a crit.
type CritProfile struct {
	Chance     float64
	Multiplier float64
}

// Outcome is the result of one damage roll
type Outcome struct {
	Damage     int
	IsCritical bool
}

// DamageEvent is produced once per qualifying target per evaluation and
// handed to the health owner and the damage-number display.
type DamageEvent struct {
	TargetID   string `json:"targetId"`
	AbilityID  string `json:"abilityId"`
	Damage     int    `json:"damage"`
	IsCritical bool   `json:"isCritical"`
	Position   Vec3   `json:"position"`
	Knockback  Vec3   `json:"knockback"`
}

// Resolver turns base damage into concrete outcomes
type Resolver struct {
	rng Random
}

// NewResolver creates a Resolver drawing from rng
func NewResolver(rng Random) *Resolver {
	return &Resolver{rng: rng}
}

// Resolve draws one sample and applies the crit profile. Damage is rounded
// and never negative.
func (r *Resolver) Resolve(base float64, crit CritProfile) Outcome {
	sample := r.rng.Float64()
	chance := Clamp(crit.Chance, 0, 1)
	out := Outcome{IsCritical: sample < chance}
	dmg := base
	if out.IsCritical {
		dmg = base * crit.Multiplier
	}
	out.Damage = RoundDamage(dmg)
	return out
}

// RoundDamage rounds to the nearest integer, clamping negatives and NaN to 0
func RoundDamage(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

// LevelTable maps ability level 1..len(Values) to base damage. Any other
// level yields Default.
type LevelTable struct {
	Values  []float64
	Default float64
}

// At returns the base damage for level
func (t LevelTable) At(level int) float64 {
	if level < 1 || level > len(t.Values) {
		return t.Default
	}
	return t.Values[level-1]
}

// Empty reports whether the table has no levels
func (t LevelTable) Empty() bool {
	return len(t.Values) == 0
}

// KnockbackDirection returns the unit push direction from origin toward
// target, or the zero vector when they coincide.
func KnockbackDirection(origin, target Vec3) Vec3 {
	d, _ := target.Sub(origin).Normalize()
	return d
}
