package main

import (
	"math"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
)

const (
	EnemySpeed       = 2.2 // units per second
	EnemyStopRange   = 1.2 // closest approach to the caster
	EnemyRepelRadius = 1.0 // separation between enemies
	EnemyRepelForce  = 1.5
	EnemyStrafeSpeed = 0.6
	DeathAnimation   = 1.0 // seconds an enemy stays dying before removal
)

// enemyKinds cycles spawn types; values are max HP
var enemyKinds = []struct {
	Kind  string
	MaxHP int
}{
	{"skeleton", 120},
	{"skeletal_mage", 90},
	{"abomination", 400},
	{"reaper", 250},
	{"death_knight", 320},
}

// Enemy is a simulated hostile that walks toward the caster
type Enemy struct {
	ID        string
	Kind      string
	Pos       combat.Vec3
	HP        int
	MaxHP     int
	Dying     bool
	DeathT    float64 // seconds since death started
	StrafeDir float64
}

// NewEnemy spawns an enemy on a ring of radius around the origin
func NewEnemy(id string, index int, angle, radius float64) *Enemy {
	k := enemyKinds[index%len(enemyKinds)]
	strafe := 1.0
	if index%2 == 1 {
		strafe = -1
	}
	return &Enemy{
		ID:        id,
		Kind:      k.Kind,
		Pos:       combat.Vec3{X: math.Cos(angle) * radius, Z: math.Sin(angle) * radius},
		HP:        k.MaxHP,
		MaxHP:     k.MaxHP,
		StrafeDir: strafe,
	}
}

// Update moves the enemy toward target, nudged apart from the others.
// Returns true once a dying enemy has finished its death animation.
func (e *Enemy) Update(dt float64, target combat.Vec3, others []*Enemy) bool {
	if e.Dying {
		e.DeathT += dt
		return e.DeathT >= DeathAnimation
	}

	to := target.Sub(e.Pos).Horizontal()
	dist := to.Len()
	var vel combat.Vec3
	if dir, ok := to.Normalize(); ok {
		if dist > EnemyStopRange {
			vel = dir.Scale(EnemySpeed)
		}
		// Circle slowly so enemies drift through shaped attacks
		side := combat.Vec3{X: -dir.Z, Z: dir.X}
		vel = vel.Add(side.Scale(EnemyStrafeSpeed * e.StrafeDir))
	}

	for _, o := range others {
		if o == e || o.Dying {
			continue
		}
		d := e.Pos.Sub(o.Pos).Horizontal()
		l := d.Len()
		if l > 0 && l < EnemyRepelRadius {
			push := (EnemyRepelRadius - l) / EnemyRepelRadius * EnemyRepelForce
			vel = vel.Add(d.Scale(push / l))
		}
	}

	e.Pos = e.Pos.Add(vel.Scale(dt))
	return false
}

// TakeDamage applies damage. Returns true if the enemy died from it.
func (e *Enemy) TakeDamage(dmg int) bool {
	if e.Dying || dmg <= 0 {
		return false
	}
	e.HP -= dmg
	if e.HP <= 0 {
		e.HP = 0
		e.Dying = true
		return true
	}
	return false
}

// ToActor snapshots the enemy for the combat engine
func (e *Enemy) ToActor() combat.Actor {
	return combat.Actor{
		ID:        e.ID,
		Kind:      e.Kind,
		Position:  e.Pos,
		Health:    e.HP,
		MaxHealth: e.MaxHP,
		IsDying:   e.Dying,
	}
}
