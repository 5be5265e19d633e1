package combat

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// Charge states and transitions
const (
	ChargeAvailable  = "available"
	ChargeOnCooldown = "on_cooldown"

	eventConsume = "consume"
	eventRecover = "recover"
)

// ChargePollInterval is how often the engine ticks charge tracks.
const ChargePollInterval = 100 * time.Millisecond

var chargeEvents = fsm.Events{
	{Name: eventConsume, Src: []string{ChargeAvailable}, Dst: ChargeOnCooldown},
	{Name: eventRecover, Src: []string{ChargeOnCooldown}, Dst: ChargeAvailable},
}

// ChargeConfig sizes a track and fixes its cooldown durations
type ChargeConfig struct {
	Charges        int
	Cooldown       time.Duration // per charge
	GlobalCooldown time.Duration // shared across the track after any consume
}

// ChargeResource is a read-only view of one charge
type ChargeResource struct {
	ID                int
	IsAvailable       bool
	CooldownRemaining time.Duration
}

type charge struct {
	id        int
	remaining time.Duration
	state     *fsm.FSM
}

func newCharge(id int) *charge {
	return &charge{
		id:    id,
		state: fsm.NewFSM(ChargeAvailable, chargeEvents, fsm.Callbacks{}),
	}
}

func (c *charge) available() bool {
	return c.state.Is(ChargeAvailable)
}

func (c *charge) fire(event string) {
	// Transitions are only requested from valid source states
	_ = c.state.Event(context.Background(), event)
}

// ChargeTrack is an N-charge resource with per-charge cooldowns and an
// optional global cooldown gating every consume.
type ChargeTrack struct {
	cfg     ChargeConfig
	charges []*charge
	global  time.Duration
}

// NewChargeTrack creates a track with every charge available
func NewChargeTrack(cfg ChargeConfig) *ChargeTrack {
	t := &ChargeTrack{}
	t.Reset(cfg)
	return t
}

// Reset replaces all charges with fresh available ones sized to cfg, e.g.
// on weapon switch.
func (t *ChargeTrack) Reset(cfg ChargeConfig) {
	if cfg.Charges < 0 {
		cfg.Charges = 0
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.GlobalCooldown < 0 {
		cfg.GlobalCooldown = 0
	}
	t.cfg = cfg
	t.global = 0
	t.charges = make([]*charge, cfg.Charges)
	for i := range t.charges {
		t.charges[i] = newCharge(i)
	}
}

// Config returns the track's configuration
func (t *ChargeTrack) Config() ChargeConfig {
	return t.cfg
}

// Tick decrements every running cooldown by elapsed, clamped at zero. A
// charge becomes available the instant its cooldown reaches zero.
func (t *ChargeTrack) Tick(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	if t.global > 0 {
		t.global -= elapsed
		if t.global < 0 {
			t.global = 0
		}
	}
	for _, c := range t.charges {
		if c.remaining <= 0 {
			continue
		}
		c.remaining -= elapsed
		if c.remaining <= 0 {
			c.remaining = 0
			c.fire(eventRecover)
		}
	}
}

// CanConsume reports whether a charge is available and the global cooldown
// has elapsed.
func (t *ChargeTrack) CanConsume() bool {
	if t.global > 0 {
		return false
	}
	for _, c := range t.charges {
		if c.available() {
			return true
		}
	}
	return false
}

// Consume spends the first available charge. It returns false and changes
// nothing when no charge can be consumed.
func (t *ChargeTrack) Consume() bool {
	if !t.CanConsume() {
		return false
	}
	for _, c := range t.charges {
		if !c.available() {
			continue
		}
		c.fire(eventConsume)
		c.remaining = t.cfg.Cooldown
		if c.remaining <= 0 {
			c.fire(eventRecover)
		}
		t.global = t.cfg.GlobalCooldown
		return true
	}
	return false
}

// Available returns the number of charges ready to consume
func (t *ChargeTrack) Available() int {
	n := 0
	for _, c := range t.charges {
		if c.available() {
			n++
		}
	}
	return n
}

// GlobalCooldownRemaining returns the time until any consume is allowed
func (t *ChargeTrack) GlobalCooldownRemaining() time.Duration {
	return t.global
}

// Charges returns a view of every charge in index order
func (t *ChargeTrack) Charges() []ChargeResource {
	out := make([]ChargeResource, len(t.charges))
	for i, c := range t.charges {
		out[i] = ChargeResource{
			ID:                c.id,
			IsAvailable:       c.available(),
			CooldownRemaining: c.remaining,
		}
	}
	return out
}
