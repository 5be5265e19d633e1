package main

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
)

// World owns enemy health and loot. It is the engine's damage sink and
// damage-number display.
type World struct {
	enemies []*Enemy
	byID    map[string]*Enemy
	runes   []*combat.RunePickup
	drops   combat.DropTable
	rng     combat.Random
	log     *zap.Logger

	nextID    int
	dropCount int
	Kills     int
	Numbers   int // damage numbers shown
	Crits     int
}

// NewWorld creates an empty world
func NewWorld(drops combat.DropTable, rng combat.Random, log *zap.Logger) *World {
	return &World{
		byID:  make(map[string]*Enemy),
		drops: drops,
		rng:   rng,
		log:   log,
	}
}

// Spawn places n enemies evenly on a ring
func (w *World) Spawn(n int, radius float64) {
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		w.nextID++
		e := NewEnemy(fmt.Sprintf("enemy-%d", w.nextID), w.nextID, angle, radius)
		w.enemies = append(w.enemies, e)
		w.byID[e.ID] = e
	}
}

// ApplyDamage implements combat.DamageSink
func (w *World) ApplyDamage(ev combat.DamageEvent) {
	e, ok := w.byID[ev.TargetID]
	if !ok {
		return
	}
	e.Pos = e.Pos.Add(ev.Knockback)
	if !e.TakeDamage(ev.Damage) {
		return
	}
	w.Kills++
	w.log.Debug("enemy killed", zap.String("id", e.ID), zap.String("kind", e.Kind), zap.String("ability", ev.AbilityID))
	if w.drops.Roll(e.Kind, w.rng) {
		kind := combat.RuneForDrop(w.dropCount)
		w.dropCount++
		w.runes = append(w.runes, combat.NewRunePickup(fmt.Sprintf("rune-%d", w.dropCount), kind, e.Pos))
	}
}

// ShowDamage implements combat.DamageDisplay
func (w *World) ShowDamage(ev combat.DamageEvent) {
	w.Numbers++
	if ev.IsCritical {
		w.Crits++
	}
}

// Step advances enemies toward the caster and drops finished corpses and
// collected runes.
func (w *World) Step(dt float64, caster combat.Vec3) {
	all := w.enemies
	alive := make([]*Enemy, 0, len(all))
	for _, e := range all {
		if e.Update(dt, caster, all) {
			delete(w.byID, e.ID)
			continue
		}
		alive = append(alive, e)
	}
	w.enemies = alive

	runes := w.runes[:0]
	for _, r := range w.runes {
		if !r.Removed() {
			runes = append(runes, r)
		}
	}
	w.runes = runes
}

// Actors snapshots every enemy for the engine
func (w *World) Actors() []combat.Actor {
	out := make([]combat.Actor, len(w.enemies))
	for i, e := range w.enemies {
		out[i] = e.ToActor()
	}
	return out
}

// Runes returns the runes lying in the world
func (w *World) Runes() []*combat.RunePickup {
	return w.runes
}

// Living returns how many enemies are not dying
func (w *World) Living() int {
	n := 0
	for _, e := range w.enemies {
		if !e.Dying {
			n++
		}
	}
	return n
}

// Nearest returns the closest living enemy position to p
func (w *World) Nearest(p combat.Vec3) (combat.Vec3, bool) {
	best := math.Inf(1)
	var pos combat.Vec3
	found := false
	for _, e := range w.enemies {
		if e.Dying {
			continue
		}
		if d := combat.HorizontalDistance(p, e.Pos); d < best {
			best, pos, found = d, e.Pos, true
		}
	}
	return pos, found
}
