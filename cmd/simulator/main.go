// Command simulator drives the combat engine against a ring of chasing
// enemies and prints a run summary.
package main

import (
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
)

const (
	tickRate   = 60
	tickDur    = time.Second / tickRate
	castEvery  = 20 // frames between cast attempts
	dashEvery  = 150
	spawnRing  = 14.0
	respawnLow = 2 // respawn a wave when this few enemies remain
)

func main() {
	seconds := flag.Int("seconds", 60, "Simulated seconds")
	seed := flag.Int64("seed", 1, "Random seed (0 = time based)")
	enemies := flag.Int("enemies", 12, "Enemies per wave")
	weapon := flag.String("weapon", combat.WeaponStaff, "Weapon loadout (sword, staff, scythe)")
	relayURL := flag.String("relay", "", "Relay websocket URL, e.g. ws://localhost:8080/ws")
	session := flag.String("session", "", "Relay session id to join (default: create one)")
	pass := flag.String("pass", "", "Passphrase of a private relay session, or for the one created")
	debug := flag.Bool("debug", false, "Log every kill and cast")
	flag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	relay := relayConfig{URL: *relayURL, Session: *session, Pass: *pass}
	if err := run(*seconds, *seed, *enemies, *weapon, relay, log); err != nil {
		log.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(seconds int, seed int64, waveSize int, weapon string, rcfg relayConfig, log *zap.Logger) error {
	rng := combat.NewPRNG(seed)
	world := NewWorld(combat.DefaultDropTable(), rng, log)

	opts := []combat.Option{
		combat.WithLogger(log),
		combat.WithRandom(rng),
		combat.WithDamageSink(world),
		combat.WithDisplay(world),
	}
	realtime := false
	var relay *relayClient
	if rcfg.URL != "" {
		rc, sid, err := dialRelay(rcfg, "simulator", log)
		if err != nil {
			return err
		}
		defer rc.Close()
		relay = rc
		realtime = true
		opts = append(opts, combat.WithRelay(rc))
		log.Info("joined relay", zap.String("sid", sid), zap.String("peer", rc.id))
	}

	cfg := combat.DefaultConfig()
	cfg.Weapon = weapon
	engine, err := combat.New(cfg, opts...)
	if err != nil {
		return err
	}
	def := combat.DefaultWeapons()[weapon]
	engine.SetCaster(combat.Transform{Facing: combat.Vec3{Z: 1}})
	world.Spawn(waveSize, spawnRing)

	frames := seconds * tickRate
	next := 0
	statuses := map[combat.CastStatus]int{}
	for f := 1; f <= frames; f++ {
		caster, _ := engine.Caster()
		world.Step(tickDur.Seconds(), caster.Position)
		if world.Living() <= respawnLow {
			world.Spawn(waveSize, spawnRing)
		}
		engine.SetRoster(world.Actors())

		if target, ok := world.Nearest(caster.Position); ok {
			if dir, ok := target.Sub(caster.Position).Horizontal().Normalize(); ok {
				caster.Facing = dir
				engine.SetCaster(caster)
			}
		}

		if f%castEvery == 0 {
			id := def.Abilities[next%len(def.Abilities)]
			next++
			if id != combat.AbilityShadowDash {
				res, err := engine.Cast(combat.CastRequest{AbilityID: id, Level: 1 + next%5})
				if err != nil {
					return err
				}
				statuses[res.Status]++
			}
		}
		if f%dashEvery == 0 {
			// Kite back toward the centre
			back := caster.Position.Scale(-1)
			if back.LenSq() == 0 {
				back = caster.Facing.Scale(-1)
			}
			st, err := engine.Dash(combat.AbilityShadowDash, back, nil)
			if err != nil {
				return err
			}
			statuses[st]++
		}

		engine.Update(tickDur)
		engine.CollectRunes(world.Runes())
		if realtime {
			time.Sleep(tickDur)
		}
	}

	st := engine.Stats()
	runes := engine.Runes()
	fields := []zap.Field{
		zap.String("weapon", weapon),
		zap.Int("seconds", seconds),
		zap.Int("casts", st.Casts),
		zap.Int("hits", st.Hits),
		zap.Int("crits", st.Crits),
		zap.Int("damage", st.DamageDealt),
		zap.Int("areaTicks", st.AreaTicks),
		zap.Int("chainHops", st.ChainHops),
		zap.Int("dashesAborted", st.DashesAborted),
		zap.Int("kills", world.Kills),
		zap.Int("runes", st.RunesLooted),
		zap.Float64("critChance", runes.CriticalChance()),
		zap.Float64("critMultiplier", runes.CriticalDamageMultiplier()),
		zap.Int("exhausted", statuses[combat.StatusExhausted]),
		zap.Int("noEffect", statuses[combat.StatusNoEffect]),
	}
	if relay != nil {
		fields = append(fields, zap.Int("relayed", relay.sent))
	}
	log.Info("simulation complete", fields...)
	return nil
}
