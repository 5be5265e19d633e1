package combat

import (
	"math"
	"slices"
	"sync/atomic"
	"time"
)

// gridThreshold is the roster size at which snapshots build a broad-phase grid.
const gridThreshold = 32

// Actor is a read-only view of one enemy or ally supplied by the world layer.
type Actor struct {
	ID             string
	Kind           string // enemy-type tag, keys the drop table
	Position       Vec3
	Health         int
	MaxHealth      int
	IsDying        bool
	DeathStartTime time.Time
}

// Targetable reports whether combat effects may select this actor.
func (a Actor) Targetable() bool {
	return !a.IsDying && a.Health > 0
}

// Snapshot is an immutable roster of actors for one update. A new snapshot
// replaces the previous one wholesale; nothing mutates it after construction.
type Snapshot struct {
	actors []Actor
	byID   map[string]int
	grid   *SpatialGrid
}

// NewSnapshot copies actors into a new snapshot. Duplicate ids keep the first
// occurrence for lookups.
func NewSnapshot(actors []Actor) *Snapshot {
	s := &Snapshot{
		actors: append([]Actor(nil), actors...),
		byID:   make(map[string]int, len(actors)),
	}
	for i, a := range s.actors {
		if _, dup := s.byID[a.ID]; !dup {
			s.byID[a.ID] = i
		}
	}
	if len(s.actors) >= gridThreshold {
		s.buildGrid()
	}
	return s
}

func (s *Snapshot) buildGrid() {
	min := Vec3{X: math.Inf(1), Z: math.Inf(1)}
	max := Vec3{X: math.Inf(-1), Z: math.Inf(-1)}
	for _, a := range s.actors {
		min.X = math.Min(min.X, a.Position.X)
		min.Z = math.Min(min.Z, a.Position.Z)
		max.X = math.Max(max.X, a.Position.X)
		max.Z = math.Max(max.Z, a.Position.Z)
	}
	s.grid = NewSpatialGrid(min, max, SpatialCellSize)
	for i, a := range s.actors {
		s.grid.Insert(a.Position, i)
	}
}

// Len returns the number of actors
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.actors)
}

// Actors returns the roster in snapshot order. Callers must not modify it.
func (s *Snapshot) Actors() []Actor {
	if s == nil {
		return nil
	}
	return s.actors
}

// Get looks up an actor by id
func (s *Snapshot) Get(id string) (Actor, bool) {
	if s == nil {
		return Actor{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Actor{}, false
	}
	return s.actors[i], true
}

// Near appends to buf the indices of actors that may lie within radius of
// center, in ascending index order. Small rosters return every index.
func (s *Snapshot) Near(center Vec3, radius float64, buf []int) []int {
	if s == nil || radius < 0 {
		return buf
	}
	if s.grid == nil {
		for i := range s.actors {
			buf = append(buf, i)
		}
		return buf
	}
	start := len(buf)
	buf = s.grid.QueryBuf(center, radius, buf)
	slices.Sort(buf[start:])
	return buf
}

// Roster holds the current snapshot. Replace may be called from any goroutine;
// readers always observe a complete snapshot.
type Roster struct {
	current atomic.Pointer[Snapshot]
}

// Replace installs a new snapshot built from actors
func (r *Roster) Replace(actors []Actor) {
	r.current.Store(NewSnapshot(actors))
}

// Load returns the current snapshot, or nil before the first Replace
func (r *Roster) Load() *Snapshot {
	return r.current.Load()
}
