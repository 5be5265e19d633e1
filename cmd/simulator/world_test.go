package main

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
)

type constRandom float64

func (c constRandom) Float64() float64 { return float64(c) }

func TestEnemyChasesTarget(t *testing.T) {
	e := NewEnemy("e", 0, 0, 10)
	before := combat.HorizontalDistance(e.Pos, combat.Vec3{})
	for i := 0; i < 60; i++ {
		e.Update(1.0/60, combat.Vec3{}, []*Enemy{e})
	}
	after := combat.HorizontalDistance(e.Pos, combat.Vec3{})
	if after >= before {
		t.Errorf("enemy should close in: %.2f -> %.2f", before, after)
	}
}

func TestEnemyDeathAnimation(t *testing.T) {
	e := NewEnemy("e", 0, 0, 5)
	if !e.TakeDamage(e.MaxHP) {
		t.Fatal("lethal damage should kill")
	}
	if e.TakeDamage(10) {
		t.Error("dying enemy should not die again")
	}
	if e.ToActor().Targetable() {
		t.Error("dying enemy should not be targetable")
	}
	if e.Update(0.5, combat.Vec3{}, nil) {
		t.Error("death animation should not finish early")
	}
	if !e.Update(0.5, combat.Vec3{}, nil) {
		t.Error("death animation should finish after 1s")
	}
}

func TestWorldDropsRunesOnKill(t *testing.T) {
	w := NewWorld(combat.DropTable{"skeleton": 1}, constRandom(0.5), zap.NewNop())
	w.Spawn(5, 10)
	var skeleton *Enemy
	for _, e := range w.enemies {
		if e.Kind == "skeleton" {
			skeleton = e
		}
	}
	if skeleton == nil {
		t.Fatal("expected a skeleton in the wave")
	}
	w.ApplyDamage(combat.DamageEvent{TargetID: skeleton.ID, Damage: 1000})
	if w.Kills != 1 || len(w.Runes()) != 1 {
		t.Fatalf("expected 1 kill and 1 rune, got %d/%d", w.Kills, len(w.Runes()))
	}
	if w.Runes()[0].Kind != combat.RuneCritChance {
		t.Error("first drop should be a crit-chance rune")
	}
	for i := 0; i < 61; i++ {
		w.Step(1.0/60, combat.Vec3{})
	}
	if _, ok := w.byID[skeleton.ID]; ok {
		t.Error("corpse should be removed after its death animation")
	}
}

func TestRunSimulation(t *testing.T) {
	for _, weapon := range []string{combat.WeaponSword, combat.WeaponStaff, combat.WeaponScythe} {
		if err := run(5, 7, 8, weapon, relayConfig{}, zap.NewNop()); err != nil {
			t.Errorf("%s: %v", weapon, err)
		}
	}
	if err := run(1, 7, 8, "trident", relayConfig{}, zap.NewNop()); !errors.Is(err, combat.ErrUnknownWeapon) {
		t.Errorf("expected ErrUnknownWeapon, got %v", err)
	}
}
