package combat

import "math"

// Shape identifies the hit predicate of a HitQuery
type Shape int

const (
	ShapeCone   Shape = 0 // 3D cone around Direction
	ShapeArc    Shape = 1 // cone on the horizontal plane, melee swings
	ShapeStrip  Shape = 2 // capsule along a segment, beams
	ShapeRadius Shape = 3 // sphere around Origin
)

func (s Shape) String() string {
	switch s {
	case ShapeCone:
		return "cone"
	case ShapeArc:
		return "arc"
	case ShapeStrip:
		return "strip"
	case ShapeRadius:
		return "radius"
	default:
		return "unknown"
	}
}

// HitQuery describes one spatial test. Range is the cone/arc reach, the strip
// length, or the sphere radius depending on Shape.
type HitQuery struct {
	Shape     Shape
	Origin    Vec3
	Direction Vec3
	Range     float64
	HalfAngle float64 // radians, Cone and Arc
	Width     float64 // full width, Strip
}

// StripBetween builds a strip query covering the segment [start, end].
func StripBetween(start, end Vec3, width float64) HitQuery {
	d := end.Sub(start)
	return HitQuery{
		Shape:     ShapeStrip,
		Origin:    start,
		Direction: d,
		Range:     d.Len(),
		Width:     width,
	}
}

// Contains reports whether p satisfies the query's predicate.
func (q HitQuery) Contains(p Vec3) bool {
	switch q.Shape {
	case ShapeCone:
		return InCone(q.Origin, q.Direction, p, q.Range, q.HalfAngle)
	case ShapeArc:
		return InArc(q.Origin, q.Direction, p, q.Range, q.HalfAngle)
	case ShapeStrip:
		dir, ok := q.Direction.Normalize()
		if !ok {
			return false
		}
		return InStrip(q.Origin, q.Origin.Add(dir.Scale(q.Range)), p, q.Width)
	case ShapeRadius:
		return InRadius(q.Origin, p, q.Range)
	default:
		return false
	}
}

// Reach returns the radius around Origin that bounds every possible hit, for
// broad-phase pre-filtering.
func (q HitQuery) Reach() float64 {
	if q.Shape == ShapeStrip {
		return q.Range + q.Width/2
	}
	return q.Range
}

// InCone checks if p lies within rng of origin and within halfAngle of dir.
// A point at the apex counts as inside.
func InCone(origin, dir, p Vec3, rng, halfAngle float64) bool {
	if rng < 0 || halfAngle < 0 || math.IsNaN(halfAngle) {
		return false
	}
	axis, ok := dir.Normalize()
	if !ok {
		return false
	}
	offset := p.Sub(origin)
	if offset.LenSq() > rng*rng {
		return false
	}
	toP, ok := offset.Normalize()
	if !ok {
		return true
	}
	return angleBetween(axis, toP) <= math.Min(halfAngle, math.Pi)
}

// InArc is InCone with the vertical axis ignored.
func InArc(origin, dir, p Vec3, rng, halfAngle float64) bool {
	return InCone(origin.Horizontal(), dir.Horizontal(), p.Horizontal(), rng, halfAngle)
}

// InStrip checks if p lies within width/2 of the segment [start, end], measured
// perpendicular to the segment. Points projecting outside the segment miss.
func InStrip(start, end, p Vec3, width float64) bool {
	if width < 0 {
		return false
	}
	seg := end.Sub(start)
	length := seg.Len()
	if length == 0 || math.IsNaN(length) {
		return false
	}
	axis := seg.Scale(1 / length)
	offset := p.Sub(start)
	t := offset.Dot(axis)
	if t < 0 || t > length {
		return false
	}
	perp := offset.Sub(axis.Scale(t))
	half := width / 2
	return perp.LenSq() <= half*half
}

// InRadius checks if p is within radius of center
func InRadius(center, p Vec3, radius float64) bool {
	if radius < 0 {
		return false
	}
	return p.Sub(center).LenSq() <= radius*radius
}

// SelectTargets returns the targetable actors of snap that satisfy q, in
// snapshot order.
func SelectTargets(q HitQuery, snap *Snapshot) []Actor {
	if snap == nil {
		return nil
	}
	var hits []Actor
	actors := snap.Actors()
	for _, i := range snap.Near(q.Origin, q.Reach(), nil) {
		a := actors[i]
		if a.Targetable() && q.Contains(a.Position) {
			hits = append(hits, a)
		}
	}
	return hits
}
