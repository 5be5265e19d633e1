package combat

import (
	"time"

	"go.uber.org/zap"
)

// Transform is the caster's position and facing
type Transform struct {
	Position Vec3
	Facing   Vec3
}

// DefaultDashDuration is used when an ability leaves DashDuration unset
const DefaultDashDuration = 200 * time.Millisecond

// Dash moves the caster along the horizontal projection of direction using
// the dash ability abilityID. onComplete receives the final position: the
// destination after the dash duration, or the unchanged position at once when
// the destination would leave the world.
func (e *Engine) Dash(abilityID string, direction Vec3, onComplete func(Vec3)) (CastStatus, error) {
	ab, err := lookupAbility(e.cfg.Abilities, abilityID)
	if err != nil {
		return StatusNotReady, err
	}
	if ab.Kind != KindDash || !e.equipped(ab) {
		return StatusNotReady, nil
	}
	return e.dash(ab, direction, onComplete), nil
}

func (e *Engine) dash(ab Ability, direction Vec3, onComplete func(Vec3)) CastStatus {
	if e.caster == nil {
		return StatusNotReady
	}
	track := e.track(ab)
	if track != nil && !track.CanConsume() {
		return StatusExhausted
	}
	start := e.caster.Position
	dir, ok := direction.Horizontal().Normalize()
	if !ok {
		dir, ok = e.caster.Facing.Horizontal().Normalize()
	}
	dest := start.Add(dir.Scale(ab.DashDistance))
	if !ok || (e.cfg.WorldRadius > 0 && HorizontalDistance(Vec3{}, dest) > e.cfg.WorldRadius) {
		e.stats.DashesAborted++
		e.log.Debug("dash aborted",
			zap.String("ability", ab.ID),
			zap.Float64("x", dest.X),
			zap.Float64("z", dest.Z),
		)
		if onComplete != nil {
			onComplete(start)
		}
		return StatusAborted
	}
	if track != nil {
		track.Consume()
	}
	e.stats.Casts++
	d := ab.DashDuration
	if d <= 0 {
		d = DefaultDashDuration
	}
	var id TimerID
	id = e.timeline.After(d, func() {
		delete(e.dashes, id)
		if e.caster != nil {
			e.caster.Position = dest
		}
		if onComplete != nil {
			onComplete(dest)
		}
	})
	if onComplete != nil {
		e.dashes[id] = onComplete
	}
	return StatusFired
}
