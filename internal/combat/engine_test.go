package combat

import (
	"errors"
	"testing"
	"time"
)

type recorder struct {
	damage  []DamageEvent
	shown   []DamageEvent
	effects []SyncEffect
}

func newTestEngine(t *testing.T, rng Random) (*Engine, *recorder) {
	t.Helper()
	return newConfiguredEngine(t, DefaultConfig(), rng)
}

func newConfiguredEngine(t *testing.T, cfg Config, rng Random) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := New(cfg,
		WithRandom(rng),
		WithDamageSink(DamageSinkFunc(func(ev DamageEvent) { rec.damage = append(rec.damage, ev) })),
		WithDisplay(DamageDisplayFunc(func(ev DamageEvent) { rec.shown = append(rec.shown, ev) })),
		WithRelay(EffectRelayFunc(func(fx SyncEffect) { rec.effects = append(rec.effects, fx) })),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.SetCaster(Transform{Facing: Vec3{Z: 1}})
	return e, rec
}

func enemy(id string, pos Vec3) Actor {
	return Actor{ID: id, Kind: "skeleton", Position: pos, Health: 100, MaxHealth: 100}
}

func TestEngineConeCast(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0.99))
	e.SetRoster([]Actor{enemy("front", Vec3{Z: 5}), enemy("side", Vec3{X: 5})})

	res, err := e.Cast(CastRequest{AbilityID: AbilityFrostBreath, Level: 2})
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if res.Status != StatusFired || len(res.Events) != 1 {
		t.Fatalf("expected one hit, got %+v", res)
	}
	ev := res.Events[0]
	if ev.TargetID != "front" || ev.Damage != 37 || ev.IsCritical {
		t.Errorf("unexpected event %+v", ev)
	}
	if len(rec.damage) != 1 || len(rec.shown) != 1 {
		t.Errorf("sink and display should each get the event: %d/%d", len(rec.damage), len(rec.shown))
	}
	if len(rec.effects) != 0 {
		t.Error("frost breath is not synced")
	}
}

func TestEngineCastExhaustedThenRecovers(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.99))
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 5})})

	e.Cast(CastRequest{AbilityID: AbilityFrostBreath})
	res, _ := e.Cast(CastRequest{AbilityID: AbilityFrostBreath})
	if res.Status != StatusExhausted {
		t.Fatalf("expected exhausted, got %s", res.Status)
	}
	for i := 0; i < 20; i++ {
		e.Update(100 * time.Millisecond)
	}
	res, _ = e.Cast(CastRequest{AbilityID: AbilityFrostBreath})
	if res.Status != StatusFired {
		t.Errorf("expected recovered charge after 2s, got %s", res.Status)
	}
}

func TestEngineBeamCritAndSync(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0.1))
	e.SetRoster([]Actor{enemy("on", Vec3{X: 0.3, Z: 5}), enemy("off", Vec3{X: 0.5, Z: 5})})

	res, _ := e.Cast(CastRequest{AbilityID: AbilityArcaneBeam})
	if len(res.Events) != 1 || res.Events[0].TargetID != "on" {
		t.Fatalf("expected only the on-axis target, got %+v", res.Events)
	}
	if !res.Events[0].IsCritical || res.Events[0].Damage != 160 {
		t.Errorf("expected 160 crit from the beam profile, got %+v", res.Events[0])
	}
	if len(rec.effects) != 1 || rec.effects[0].Type != EffectBeam || rec.effects[0].CasterID != "local" {
		t.Errorf("expected one beam sync effect, got %+v", rec.effects)
	}
	if e.Stats().Crits != 1 {
		t.Errorf("expected 1 crit in stats, got %d", e.Stats().Crits)
	}
}

func TestEngineRuneProfileApplies(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.11))
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 5})})

	res, _ := e.Cast(CastRequest{AbilityID: AbilityFrostBreath})
	if res.Events[0].IsCritical {
		t.Fatal("0.11 should not crit at base 10%")
	}
	got := e.CollectRunes([]*RunePickup{
		NewRunePickup("near", RuneCritChance, Vec3{X: 1}),
		NewRunePickup("far", RuneCritChance, Vec3{X: 10}),
	})
	if len(got) != 1 || e.Runes().CriticalRuneCount() != 1 {
		t.Fatalf("expected one rune collected, got %d", len(got))
	}
	e.Update(2 * time.Second)
	res, _ = e.Cast(CastRequest{AbilityID: AbilityFrostBreath})
	if !res.Events[0].IsCritical || res.Events[0].Damage != 62 {
		t.Errorf("expected 62 crit at 13%%, got %+v", res.Events[0])
	}
}

func TestEngineBlizzardTicks(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0.99))
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 6}), enemy("b", Vec3{Z: 3})})

	res, _ := e.Cast(CastRequest{AbilityID: AbilityBlizzard})
	if res.Area == 0 {
		t.Fatal("expected an area id")
	}
	if len(rec.effects) != 1 {
		t.Fatalf("expected one sync effect, got %d", len(rec.effects))
	}
	fx := rec.effects[0]
	if fx.Type != EffectArea || fx.Position != (Vec3{Z: 6}) || fx.Duration != 6000 || fx.Radius != 5 {
		t.Errorf("unexpected effect %+v", fx)
	}

	e.Update(time.Second)
	if len(rec.damage) != 4 {
		t.Fatalf("expected both enemies hit on both ticks, got %d events", len(rec.damage))
	}
	for _, ev := range rec.damage {
		if ev.Damage != 12 {
			t.Errorf("expected 12 per tick, got %d", ev.Damage)
		}
	}
	e.Update(10 * time.Second)
	if e.Stats().AreaTicks != 12 || e.Areas().Active() != 0 {
		t.Errorf("expected 12 ticks then expiry, got %d ticks, %d active", e.Stats().AreaTicks, e.Areas().Active())
	}
}

func TestEngineChainStaggeredHops(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0))
	if err := e.EquipWeapon(WeaponScythe); err != nil {
		t.Fatal(err)
	}
	actors := lineOfEnemies(5)
	e.SetRoster(actors)

	res, _ := e.Cast(CastRequest{AbilityID: AbilityChainLightning})
	if res.Status != StatusFired || len(res.Hops) != 3 {
		t.Fatalf("expected 3 hops, got %+v", res)
	}
	if len(rec.damage) != 1 || rec.damage[0].Damage != 23 {
		t.Fatalf("first hop should land immediately, got %+v", rec.damage)
	}

	actors[1].IsDying = true
	e.SetRoster(actors)
	e.Update(400 * time.Millisecond)
	if len(rec.damage) != 2 {
		t.Fatalf("hop onto a dying target should be dropped, got %d events", len(rec.damage))
	}
	if rec.damage[1].TargetID != "e2" || rec.damage[1].Damage != 17 {
		t.Errorf("unexpected third hop %+v", rec.damage[1])
	}
	if len(rec.effects) != 1 || len(rec.effects[0].Jumps) != 3 {
		t.Errorf("expected chain sync with 3 jumps, got %+v", rec.effects)
	}
}

func TestEngineChainGateNoSideEffects(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0.5))
	e.SetRoster(lineOfEnemies(3))
	res, _ := e.Cast(CastRequest{AbilityID: AbilityChainLightning})
	if res.Status != StatusNoEffect || len(rec.damage) != 0 || len(rec.effects) != 0 {
		t.Errorf("failed gate should do nothing, got %+v", res)
	}
	if e.Stats().Casts != 0 {
		t.Error("failed gate should not count as a cast")
	}
}

func TestEngineDash(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.5))
	var done *Vec3
	res, err := e.Cast(CastRequest{
		AbilityID:  AbilityShadowDash,
		OnComplete: func(p Vec3) { done = &p },
	})
	if err != nil || res.Status != StatusFired {
		t.Fatalf("dash failed: %v %s", err, res.Status)
	}
	if done != nil {
		t.Fatal("dash should complete after its duration")
	}
	e.Update(200 * time.Millisecond)
	if done == nil || *done != (Vec3{Z: 6}) {
		t.Fatalf("expected completion at (0,0,6), got %v", done)
	}
	if c, _ := e.Caster(); c.Position != (Vec3{Z: 6}) {
		t.Errorf("caster should move, got %+v", c.Position)
	}
	track, _ := e.Track(AbilityShadowDash)
	if track.Available() != 2 {
		t.Errorf("expected 2 dash charges left, got %d", track.Available())
	}
}

func TestEngineDashAbortsAtWorldEdge(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.5))
	start := Vec3{X: 28}
	e.SetCaster(Transform{Position: start, Facing: Vec3{X: 1}})

	var done *Vec3
	status, err := e.Dash(AbilityShadowDash, Vec3{X: 1}, func(p Vec3) { done = &p })
	if err != nil || status != StatusAborted {
		t.Fatalf("expected abort, got %s %v", status, err)
	}
	if done == nil || *done != start {
		t.Errorf("abort should complete immediately at the start, got %v", done)
	}
	track, _ := e.Track(AbilityShadowDash)
	if track.Available() != 3 {
		t.Errorf("abort should not consume a charge, %d available", track.Available())
	}
}

func TestEngineNoCasterIsNoop(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0))
	e.ClearCaster()
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 1})})
	res, err := e.Cast(CastRequest{AbilityID: AbilitySmiteNova})
	if err != nil || res.Status != StatusNotReady || len(rec.damage) != 0 {
		t.Errorf("expected silent no-op, got %+v %v", res, err)
	}
}

func TestEngineUnknownIDs(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0))
	if _, err := e.Cast(CastRequest{AbilityID: "meteor"}); !errors.Is(err, ErrUnknownAbility) {
		t.Errorf("expected ErrUnknownAbility, got %v", err)
	}
	if err := e.EquipWeapon("trident"); !errors.Is(err, ErrUnknownWeapon) {
		t.Errorf("expected ErrUnknownWeapon, got %v", err)
	}
	if e.Weapon() != WeaponStaff {
		t.Errorf("failed equip should keep %s, got %s", WeaponStaff, e.Weapon())
	}
}

func TestEngineEquipResetsTracks(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.5))
	e.Cast(CastRequest{AbilityID: AbilityShadowDash})
	if err := e.EquipWeapon(WeaponSword); err != nil {
		t.Fatal(err)
	}
	track, _ := e.Track(AbilityShadowDash)
	if track.Available() != 3 {
		t.Errorf("weapon switch should refill charges, got %d", track.Available())
	}
}

func TestEngineNovaKnockback(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.5))
	if err := e.EquipWeapon(WeaponSword); err != nil {
		t.Fatal(err)
	}
	e.SetRoster([]Actor{enemy("a", Vec3{X: 3})})
	res, _ := e.Cast(CastRequest{AbilityID: AbilitySmiteNova})
	if len(res.Events) != 1 || res.Events[0].Knockback != (Vec3{X: 2}) {
		t.Errorf("expected knockback (2,0,0), got %+v", res.Events)
	}
}

func TestEnginesAreIsolated(t *testing.T) {
	a, _ := newTestEngine(t, fixedRandom(0.5))
	b, _ := newTestEngine(t, fixedRandom(0.5))
	a.CollectRunes([]*RunePickup{NewRunePickup("r", RuneCritDamage, Vec3{})})
	if b.Runes().CritDamageRuneCount() != 0 {
		t.Error("rune state leaked between engines")
	}
}

func TestEngineChargePollCadence(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.99))
	if res, _ := e.Cast(CastRequest{AbilityID: AbilityFrostBreath}); res.Status != StatusFired {
		t.Fatalf("first cast: %s", res.Status)
	}
	track, _ := e.Track(AbilityFrostBreath)
	frame := time.Second / 60

	// Six frames fall just short of one poll interval
	for i := 0; i < 6; i++ {
		e.Update(frame)
	}
	if got := track.Charges()[0].CooldownRemaining; got != 2*time.Second {
		t.Fatalf("cooldown moved between polls: %v", got)
	}
	e.Update(frame)
	if got := track.Charges()[0].CooldownRemaining; got != 2*time.Second-7*frame {
		t.Fatalf("poll should apply the accumulated 7 frames, remaining %v", got)
	}

	// Polls land every 7 frames; the 18th poll (frame 126) crosses 2s
	for i := 7; i < 125; i++ {
		e.Update(frame)
	}
	if track.CanConsume() {
		t.Fatal("recovered before a poll boundary")
	}
	e.Update(frame)
	if !track.CanConsume() {
		t.Fatal("expected recovery on the poll at frame 126")
	}
}

func TestEngineResetCompletesPendingDash(t *testing.T) {
	e, _ := newTestEngine(t, fixedRandom(0.5))
	var done []Vec3
	if status, _ := e.Dash(AbilityShadowDash, Vec3{Z: 1}, func(p Vec3) { done = append(done, p) }); status != StatusFired {
		t.Fatalf("dash: %s", status)
	}
	e.Reset()
	if len(done) != 1 || done[0] != (Vec3{}) {
		t.Fatalf("reset should complete the dash in place, got %v", done)
	}
	e.Update(time.Second)
	if len(done) != 1 {
		t.Errorf("dash completed twice: %v", done)
	}
	if c, _ := e.Caster(); c.Position != (Vec3{}) {
		t.Errorf("caster moved after reset: %+v", c.Position)
	}
}

func TestEngineEquipRejectsBadLoadout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weapons = DefaultWeapons()
	cfg.Weapons["broken"] = WeaponDef{Name: "broken", Abilities: []string{AbilitySwordSweep, "meteor"}}
	e, _ := newConfiguredEngine(t, cfg, fixedRandom(0.99))
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 5})})
	e.Cast(CastRequest{AbilityID: AbilityFrostBreath})

	if err := e.EquipWeapon("broken"); !errors.Is(err, ErrUnknownAbility) {
		t.Fatalf("expected ErrUnknownAbility, got %v", err)
	}
	if e.Weapon() != WeaponStaff {
		t.Errorf("weapon changed to %s", e.Weapon())
	}
	track, _ := e.Track(AbilityFrostBreath)
	if track.CanConsume() {
		t.Error("failed equip should leave the staff tracks as they were")
	}
	if res, _ := e.Cast(CastRequest{AbilityID: AbilitySwordSweep}); res.Status != StatusNotReady {
		t.Errorf("sweep should stay locked, got %s", res.Status)
	}
}

func TestEngineCastOutsideLoadout(t *testing.T) {
	e, rec := newTestEngine(t, fixedRandom(0))
	e.SetRoster([]Actor{enemy("a", Vec3{Z: 2})})
	for _, id := range []string{AbilitySmiteNova, AbilitySwordSweep, AbilityInfernoRing} {
		res, err := e.Cast(CastRequest{AbilityID: id})
		if err != nil || res.Status != StatusNotReady {
			t.Errorf("%s with staff: %s %v", id, res.Status, err)
		}
	}
	if len(rec.damage) != 0 || len(rec.effects) != 0 || e.Stats().Casts != 0 {
		t.Error("locked abilities should have no side effects")
	}
	if err := e.EquipWeapon(WeaponScythe); err != nil {
		t.Fatal(err)
	}
	if res, _ := e.Cast(CastRequest{AbilityID: AbilityInfernoRing}); res.Status != StatusFired {
		t.Errorf("inferno ring with scythe: %s", res.Status)
	}
}

func TestEngineAreaBadTimingsKeepCharge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Abilities = DefaultAbilities()
	bad := cfg.Abilities[AbilityBlizzard]
	bad.TickInterval = 0
	cfg.Abilities[AbilityBlizzard] = bad
	e, rec := newConfiguredEngine(t, cfg, fixedRandom(0.5))

	res, err := e.Cast(CastRequest{AbilityID: AbilityBlizzard})
	if err != nil || res.Status != StatusNoEffect || res.Area != 0 {
		t.Fatalf("expected no effect, got %+v %v", res, err)
	}
	if len(rec.effects) != 0 {
		t.Error("rejected area should not be synced")
	}
	track, _ := e.Track(AbilityBlizzard)
	if track.Available() != 1 || e.Stats().Casts != 0 {
		t.Errorf("charge spent on a rejected area: %d available", track.Available())
	}
}
