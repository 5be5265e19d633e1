package combat

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"
)

// DamageSink owns enemy health and applies damage events
type DamageSink interface {
	ApplyDamage(ev DamageEvent)
}

// DamageDisplay queues floating damage numbers
type DamageDisplay interface {
	ShowDamage(ev DamageEvent)
}

// EffectRelay forwards synced effects to remote clients
type EffectRelay interface {
	RelayEffect(fx SyncEffect)
}

// DamageSinkFunc adapts a function to DamageSink
type DamageSinkFunc func(DamageEvent)

func (f DamageSinkFunc) ApplyDamage(ev DamageEvent) { f(ev) }

// DamageDisplayFunc adapts a function to DamageDisplay
type DamageDisplayFunc func(DamageEvent)

func (f DamageDisplayFunc) ShowDamage(ev DamageEvent) { f(ev) }

// EffectRelayFunc adapts a function to EffectRelay
type EffectRelayFunc func(SyncEffect)

func (f EffectRelayFunc) RelayEffect(fx SyncEffect) { f(fx) }

// Config holds engine tunables
type Config struct {
	CasterID           string
	WorldRadius        float64 // 0 disables the dash bounds check
	ChargePollInterval time.Duration
	Runes              RuneConfig
	Abilities          map[string]Ability
	Weapons            map[string]WeaponDef
	Weapon             string // equipped at construction when set
}

// DefaultConfig returns the shipped tunables
func DefaultConfig() Config {
	return Config{
		CasterID:           "local",
		WorldRadius:        29,
		ChargePollInterval: ChargePollInterval,
		Runes:              DefaultRuneConfig(),
		Abilities:          DefaultAbilities(),
		Weapons:            DefaultWeapons(),
		Weapon:             WeaponStaff,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRandom sets the random source for crit and chain rolls
func WithRandom(r Random) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithDamageSink sets the health owner
func WithDamageSink(s DamageSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithDisplay sets the damage-number queue
func WithDisplay(d DamageDisplay) Option {
	return func(e *Engine) { e.display = d }
}

// WithRelay sets the effect relay
func WithRelay(r EffectRelay) Option {
	return func(e *Engine) { e.relay = r }
}

// CastStatus is the outcome class of a cast
type CastStatus int

const (
	StatusFired     CastStatus = 0
	StatusNotReady  CastStatus = 1 // no caster or wrong ability kind
	StatusExhausted CastStatus = 2 // no charge or global cooldown running
	StatusNoEffect  CastStatus = 3 // chain gate failed or found no target
	StatusAborted   CastStatus = 4 // dash would leave the world
)

func (s CastStatus) String() string {
	switch s {
	case StatusFired:
		return "fired"
	case StatusNotReady:
		return "not_ready"
	case StatusExhausted:
		return "exhausted"
	case StatusNoEffect:
		return "no_effect"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// CastRequest asks the engine to resolve one ability
type CastRequest struct {
	AbilityID  string
	Level      int
	Direction  *Vec3      // overrides the caster's facing
	Target     *Vec3      // zone placement for area abilities
	OnComplete func(Vec3) // dash completion
}

// CastResult reports what a cast did synchronously
type CastResult struct {
	Status CastStatus
	Events []DamageEvent // immediate hits
	Area   AreaID
	Hops   []ChainHop
}

// Stats are per-engine counters
type Stats struct {
	Casts         int
	Hits          int
	Crits         int
	DamageDealt   int
	AreaTicks     int
	ChainHops     int
	DashesAborted int
	RunesLooted   int
}

// Engine resolves abilities for one local caster. It is single-threaded;
// only SetRoster may be called from another goroutine.
type Engine struct {
	cfg      Config
	log      *zap.Logger
	rng      Random
	resolver *Resolver
	chains   *ChainSelector
	runes    *RuneState
	timeline *Timeline
	areas    *AreaScheduler
	roster   Roster

	caster  *Transform
	weapon  string
	loadout map[string]bool // nil until a weapon is equipped
	tracks  map[string]*ChargeTrack
	dashes  map[TimerID]func(Vec3) // pending dash completions

	sink    DamageSink
	display DamageDisplay
	relay   EffectRelay

	pollAcc time.Duration
	stats   Stats
}

// New builds an isolated engine
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Abilities == nil {
		cfg.Abilities = DefaultAbilities()
	}
	if cfg.Weapons == nil {
		cfg.Weapons = DefaultWeapons()
	}
	if cfg.ChargePollInterval <= 0 {
		cfg.ChargePollInterval = ChargePollInterval
	}
	if cfg.Runes.PickupRadius <= 0 {
		cfg.Runes = DefaultRuneConfig()
	}
	e := &Engine{
		cfg:      cfg,
		log:      zap.NewNop(),
		rng:      NewPRNG(0),
		timeline: NewTimeline(),
		tracks:   make(map[string]*ChargeTrack),
		dashes:   make(map[TimerID]func(Vec3)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = NewResolver(e.rng)
	e.chains = NewChainSelector(e.rng)
	e.runes = NewRuneState(cfg.Runes)
	e.areas = NewAreaScheduler(e.timeline, e.roster.Load, e.areaTick)
	if cfg.Weapon != "" {
		if err := e.EquipWeapon(cfg.Weapon); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetRoster replaces the actor snapshot used by every later query
func (e *Engine) SetRoster(actors []Actor) {
	e.roster.Replace(actors)
}

// Roster returns the current snapshot
func (e *Engine) Roster() *Snapshot {
	return e.roster.Load()
}

// SetCaster sets the caster transform
func (e *Engine) SetCaster(t Transform) {
	e.caster = &t
}

// ClearCaster removes the caster; casts become silent no-ops
func (e *Engine) ClearCaster() {
	e.caster = nil
}

// Caster returns the caster transform, if any
func (e *Engine) Caster() (Transform, bool) {
	if e.caster == nil {
		return Transform{}, false
	}
	return *e.caster, true
}

// Weapon returns the equipped weapon name
func (e *Engine) Weapon() string {
	return e.weapon
}

// EquipWeapon switches loadout and resets every charge track. A loadout that
// names an unknown ability leaves the current weapon untouched.
func (e *Engine) EquipWeapon(name string) error {
	def, err := lookupWeapon(e.cfg.Weapons, name)
	if err != nil {
		return err
	}
	loadout := make(map[string]bool, len(def.Abilities))
	tracks := make(map[string]*ChargeTrack)
	for _, id := range def.Abilities {
		ab, err := lookupAbility(e.cfg.Abilities, id)
		if err != nil {
			return fmt.Errorf("weapon %q: %w", name, err)
		}
		loadout[ab.ID] = true
		if ab.Gated() {
			tracks[ab.ID] = NewChargeTrack(ab.Charges)
		}
	}
	e.weapon = def.Name
	e.loadout = loadout
	e.tracks = tracks
	e.log.Debug("weapon equipped", zap.String("weapon", name), zap.Int("abilities", len(def.Abilities)))
	return nil
}

// Track returns the charge track of a gated ability, creating it if needed
func (e *Engine) Track(abilityID string) (*ChargeTrack, error) {
	ab, err := lookupAbility(e.cfg.Abilities, abilityID)
	if err != nil {
		return nil, err
	}
	return e.track(ab), nil
}

// equipped reports whether the current weapon grants ab. Engines without a
// weapon may cast the whole catalog.
func (e *Engine) equipped(ab Ability) bool {
	return e.loadout == nil || e.loadout[ab.ID]
}

func (e *Engine) track(ab Ability) *ChargeTrack {
	if !ab.Gated() {
		return nil
	}
	t, ok := e.tracks[ab.ID]
	if !ok {
		t = NewChargeTrack(ab.Charges)
		e.tracks[ab.ID] = t
	}
	return t
}

// Runes returns the rune aggregator
func (e *Engine) Runes() *RuneState {
	return e.runes
}

// Timeline returns the engine's schedule
func (e *Engine) Timeline() *Timeline {
	return e.timeline
}

// Areas returns the area scheduler
func (e *Engine) Areas() *AreaScheduler {
	return e.areas
}

// Stats returns the engine counters
func (e *Engine) Stats() Stats {
	return e.stats
}

// Update advances scheduled work by dt and polls charge tracks every
// ChargePollInterval with the time accumulated since the last poll.
func (e *Engine) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	e.timeline.Advance(dt)
	e.pollAcc += dt
	if e.pollAcc < e.cfg.ChargePollInterval {
		return
	}
	elapsed := e.pollAcc
	e.pollAcc = 0
	for _, t := range e.tracks {
		t.Tick(elapsed)
	}
}

// Reset clears runes, areas, pending timers and charge tracks, e.g. on
// game restart. Dashes still in flight complete at the caster's current
// position.
func (e *Engine) Reset() {
	pending := e.dashes
	e.dashes = make(map[TimerID]func(Vec3))
	e.areas.CancelAll()
	e.timeline = NewTimeline()
	e.areas = NewAreaScheduler(e.timeline, e.roster.Load, e.areaTick)
	e.runes.Reset()
	for _, t := range e.tracks {
		t.Reset(t.Config())
	}
	e.pollAcc = 0
	e.stats = Stats{}

	var at Vec3
	if e.caster != nil {
		at = e.caster.Position
	}
	for _, id := range slices.Sorted(maps.Keys(pending)) {
		pending[id](at)
	}
}

// CollectRunes picks up every rune within reach of the caster
func (e *Engine) CollectRunes(pickups []*RunePickup) []*RunePickup {
	if e.caster == nil {
		return nil
	}
	got := e.runes.CollectNearby(pickups, e.caster.Position)
	e.stats.RunesLooted += len(got)
	for _, p := range got {
		e.log.Debug("rune collected",
			zap.String("rune", p.ID),
			zap.Stringer("kind", p.Kind),
			zap.Float64("critChance", e.runes.CriticalChance()),
			zap.Float64("critMultiplier", e.runes.CriticalDamageMultiplier()),
		)
	}
	return got
}

// Cast resolves one catalog ability
func (e *Engine) Cast(req CastRequest) (CastResult, error) {
	ab, err := lookupAbility(e.cfg.Abilities, req.AbilityID)
	if err != nil {
		return CastResult{Status: StatusNotReady}, err
	}
	if e.caster == nil || !e.equipped(ab) {
		return CastResult{Status: StatusNotReady}, nil
	}
	dir := e.caster.Facing
	if req.Direction != nil {
		dir = *req.Direction
	}
	var res CastResult
	switch ab.Kind {
	case KindDash:
		res.Status = e.dash(ab, dir, req.OnComplete)
	case KindChain:
		res = e.castChain(ab, req.Level, dir)
	case KindArea:
		res = e.castArea(ab, req, dir)
	default:
		res = e.castStrike(ab, req.Level, dir)
	}
	e.log.Debug("cast",
		zap.String("ability", ab.ID),
		zap.Stringer("status", res.Status),
		zap.Int("hits", len(res.Events)),
		zap.Int("hops", len(res.Hops)),
	)
	return res, nil
}

func (e *Engine) consume(ab Ability) bool {
	t := e.track(ab)
	if t == nil {
		return true
	}
	return t.Consume()
}

func (e *Engine) profile(ab Ability) CritProfile {
	if ab.Crit != nil {
		return *ab.Crit
	}
	return e.runes.Profile()
}

func (e *Engine) castStrike(ab Ability, level int, dir Vec3) CastResult {
	if !e.consume(ab) {
		return CastResult{Status: StatusExhausted}
	}
	e.stats.Casts++
	origin := e.caster.Position
	q := HitQuery{
		Shape:     ab.Shape,
		Origin:    origin,
		Direction: dir,
		Range:     ab.Range,
		HalfAngle: ab.HalfAngle,
		Width:     ab.Width,
	}
	base := ab.BaseDamage(level)
	crit := e.profile(ab)
	targets := SelectTargets(q, e.roster.Load())
	events := make([]DamageEvent, 0, len(targets))
	for _, a := range targets {
		out := e.resolver.Resolve(base, crit)
		ev := DamageEvent{
			TargetID:   a.ID,
			AbilityID:  ab.ID,
			Damage:     out.Damage,
			IsCritical: out.IsCritical,
			Position:   a.Position,
		}
		if ab.Knockback > 0 {
			ev.Knockback = KnockbackDirection(origin, a.Position).Scale(ab.Knockback)
		}
		e.emit(ev)
		events = append(events, ev)
	}
	if ab.Synced {
		e.sync(SyncEffect{
			Type:      effectType(ab),
			AbilityID: ab.ID,
			Position:  origin,
			Direction: dir,
			Range:     ab.Range,
			Width:     ab.Width,
			HalfAngle: ab.HalfAngle,
			Level:     level,
		})
	}
	return CastResult{Status: StatusFired, Events: events}
}

func (e *Engine) castArea(ab Ability, req CastRequest, dir Vec3) CastResult {
	center := e.caster.Position
	if req.Target != nil {
		center = *req.Target
	} else if ab.Offset > 0 {
		if d, ok := dir.Horizontal().Normalize(); ok {
			center = center.Add(d.Scale(ab.Offset))
		}
	}
	spec := AreaSpec{
		AbilityID: ab.ID,
		Query: HitQuery{
			Shape:     ab.Shape,
			Origin:    center,
			Direction: dir,
			Range:     ab.Range,
			HalfAngle: ab.HalfAngle,
			Width:     ab.Width,
		},
		Damage:       ab.BaseDamage(req.Level),
		Crit:         ab.Crit,
		TickInterval: ab.TickInterval,
		Duration:     ab.Duration,
	}
	if !spec.Valid() {
		return CastResult{Status: StatusNoEffect}
	}
	if !e.consume(ab) {
		return CastResult{Status: StatusExhausted}
	}
	e.stats.Casts++
	id := e.areas.Start(spec)
	if ab.Synced {
		e.sync(SyncEffect{
			Type:      EffectArea,
			AbilityID: ab.ID,
			Position:  center,
			Direction: dir,
			Duration:  ab.Duration.Milliseconds(),
			Radius:    ab.Range,
			HalfAngle: ab.HalfAngle,
			Level:     req.Level,
		})
	}
	return CastResult{Status: StatusFired, Area: id}
}

func (e *Engine) areaTick(t AreaTick) {
	e.stats.AreaTicks++
	crit := e.runes.Profile()
	if t.Spec.Crit != nil {
		crit = *t.Spec.Crit
	}
	for _, a := range t.Targets {
		out := e.resolver.Resolve(t.Spec.Damage, crit)
		e.emit(DamageEvent{
			TargetID:   a.ID,
			AbilityID:  t.Spec.AbilityID,
			Damage:     out.Damage,
			IsCritical: out.IsCritical,
			Position:   a.Position,
		})
	}
}

func (e *Engine) castChain(ab Ability, level int, dir Vec3) CastResult {
	t := e.track(ab)
	if t != nil && !t.CanConsume() {
		return CastResult{Status: StatusExhausted}
	}
	origin := e.caster.Position
	state, hops, ok := e.chains.Select(ab.Chain, origin, e.roster.Load())
	if !ok {
		return CastResult{Status: StatusNoEffect}
	}
	if t != nil {
		t.Consume()
	}
	e.stats.Casts++
	for _, h := range hops {
		hop := h
		if hop.Delay <= 0 {
			e.applyHop(ab, hop)
			continue
		}
		e.timeline.After(hop.Delay, func() { e.applyHop(ab, hop) })
	}
	if ab.Synced {
		e.sync(SyncEffect{
			Type:      EffectChain,
			AbilityID: ab.ID,
			Position:  origin,
			Direction: dir,
			Radius:    ab.Chain.JumpRadius,
			Jumps:     state.Jumps,
			Level:     level,
		})
	}
	return CastResult{Status: StatusFired, Hops: hops}
}

// applyHop damages a chain target if it is still present and targetable
func (e *Engine) applyHop(ab Ability, hop ChainHop) {
	a, ok := e.roster.Load().Get(hop.TargetID)
	if !ok || !a.Targetable() {
		return
	}
	e.stats.ChainHops++
	e.emit(DamageEvent{
		TargetID:  hop.TargetID,
		AbilityID: ab.ID,
		Damage:    hop.Damage,
		Position:  hop.Position,
	})
}

func (e *Engine) emit(ev DamageEvent) {
	e.stats.Hits++
	e.stats.DamageDealt += ev.Damage
	if ev.IsCritical {
		e.stats.Crits++
	}
	if e.sink != nil {
		e.sink.ApplyDamage(ev)
	}
	if e.display != nil {
		e.display.ShowDamage(ev)
	}
}

func (e *Engine) sync(fx SyncEffect) {
	if e.relay == nil {
		return
	}
	fx.CasterID = e.cfg.CasterID
	e.relay.RelayEffect(fx)
}
