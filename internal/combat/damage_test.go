package combat

import (
	"math"
	"testing"
)

func TestResolveNormalAndCrit(t *testing.T) {
	crit := CritProfile{Chance: 0.15, Multiplier: 2}

	out := NewResolver(fixedRandom(0.5)).Resolve(80, crit)
	if out.IsCritical || out.Damage != 80 {
		t.Errorf("expected 80 non-crit, got %+v", out)
	}
	out = NewResolver(fixedRandom(0.1)).Resolve(80, crit)
	if !out.IsCritical || out.Damage != 160 {
		t.Errorf("expected 160 crit, got %+v", out)
	}
}

func TestResolveClampsChance(t *testing.T) {
	r := NewResolver(fixedRandom(0.999))
	if !r.Resolve(10, CritProfile{Chance: 3, Multiplier: 2}).IsCritical {
		t.Error("chance above 1 should always crit")
	}
	r = NewResolver(fixedRandom(0))
	if r.Resolve(10, CritProfile{Chance: -1, Multiplier: 2}).IsCritical {
		t.Error("negative chance should never crit")
	}
}

func TestResolveOneSamplePerCall(t *testing.T) {
	rng := &seqRandom{vals: []float64{0.05, 0.9}}
	r := NewResolver(rng)
	r.Resolve(10, CritProfile{Chance: 0.1, Multiplier: 2})
	r.Resolve(10, CritProfile{Chance: 0.1, Multiplier: 2})
	if rng.i != 2 {
		t.Errorf("expected 2 samples, got %d", rng.i)
	}
}

func TestRoundDamage(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{12.4, 12},
		{12.5, 13},
		{-5, 0},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxInt32},
	}
	for _, c := range cases {
		if got := RoundDamage(c.in); got != c.want {
			t.Errorf("RoundDamage(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLevelTable(t *testing.T) {
	lt := LevelTable{Values: []float64{40, 46, 52}, Default: 40}
	if lt.At(2) != 46 {
		t.Errorf("expected 46 at level 2, got %v", lt.At(2))
	}
	if lt.At(0) != 40 || lt.At(9) != 40 {
		t.Error("out-of-table levels should use the default")
	}
	if !(LevelTable{Default: 5}).Empty() {
		t.Error("table without values should be empty")
	}
}

func TestKnockbackDirection(t *testing.T) {
	d := KnockbackDirection(Vec3{}, Vec3{X: 3, Z: 4})
	if math.Abs(d.Len()-1) > 1e-9 || math.Abs(d.X-0.6) > 1e-9 {
		t.Errorf("unexpected direction %+v", d)
	}
	if KnockbackDirection(Vec3{X: 1}, Vec3{X: 1}) != (Vec3{}) {
		t.Error("coincident points should give zero direction")
	}
}
