package combat

import "time"

// AreaID identifies a running area effect. Zero is never valid.
type AreaID uint64

// AreaSpec describes a duration-bound area effect such as a ground zone
type AreaSpec struct {
	AbilityID    string
	Query        HitQuery
	Damage       float64
	Crit         *CritProfile // nil uses the rune-derived profile
	TickInterval time.Duration
	Duration     time.Duration
}

// Valid reports whether the timings can be scheduled
func (s AreaSpec) Valid() bool {
	return s.TickInterval > 0 && s.Duration > 0
}

// AreaTick is one re-evaluation of an area effect against the live roster
type AreaTick struct {
	ID      AreaID
	Spec    AreaSpec
	Tick    int // 1-based
	Targets []Actor
}

type areaEffect struct {
	spec    AreaSpec
	ticker  TimerID
	cleanup TimerID
	ticks   int
}

// AreaScheduler re-runs area queries on a fixed interval for the effect's
// duration. Targets standing inside for several ticks are hit on every tick.
type AreaScheduler struct {
	tl       *Timeline
	snapshot func() *Snapshot
	onTick   func(AreaTick)
	effects  map[AreaID]*areaEffect
	nextID   AreaID
}

// NewAreaScheduler creates a scheduler on tl. snapshot supplies the current
// roster at tick time; onTick receives the targets of every tick.
func NewAreaScheduler(tl *Timeline, snapshot func() *Snapshot, onTick func(AreaTick)) *AreaScheduler {
	return &AreaScheduler{
		tl:       tl,
		snapshot: snapshot,
		onTick:   onTick,
		effects:  make(map[AreaID]*areaEffect),
	}
}

// Start schedules an effect. Ticks fall at start+k*TickInterval up to and
// including start+Duration. Invalid timings return a zero id and schedule
// nothing.
func (s *AreaScheduler) Start(spec AreaSpec) AreaID {
	if !spec.Valid() {
		return 0
	}
	s.nextID++
	id := s.nextID
	eff := &areaEffect{spec: spec}
	eff.ticker = s.tl.Every(spec.TickInterval, func() { s.tick(id) })
	eff.cleanup = s.tl.After(spec.Duration, func() { s.Cancel(id) })
	s.effects[id] = eff
	return id
}

func (s *AreaScheduler) tick(id AreaID) {
	eff, ok := s.effects[id]
	if !ok {
		return
	}
	eff.ticks++
	snap := s.snapshot()
	if snap == nil {
		return
	}
	targets := SelectTargets(eff.spec.Query, snap)
	if s.onTick != nil {
		s.onTick(AreaTick{ID: id, Spec: eff.spec, Tick: eff.ticks, Targets: targets})
	}
}

// Cancel clears both the tick interval and the pending cleanup. It reports
// whether the effect was still running.
func (s *AreaScheduler) Cancel(id AreaID) bool {
	eff, ok := s.effects[id]
	if !ok {
		return false
	}
	s.tl.Cancel(eff.ticker)
	s.tl.Cancel(eff.cleanup)
	delete(s.effects, id)
	return true
}

// CancelAll tears down every running effect
func (s *AreaScheduler) CancelAll() {
	for id := range s.effects {
		s.Cancel(id)
	}
}

// Active returns the number of running effects
func (s *AreaScheduler) Active() int {
	return len(s.effects)
}

// Ticks returns how many ticks an effect has fired so far
func (s *AreaScheduler) Ticks(id AreaID) int {
	if eff, ok := s.effects[id]; ok {
		return eff.ticks
	}
	return 0
}
