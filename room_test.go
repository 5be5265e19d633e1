package main

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

// fakeClient records everything a room sends it
type fakeClient struct {
	mu     sync.Mutex
	json   []protocol.Envelope
	binary [][]byte
}

func (f *fakeClient) SendJSON(msg interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if env, ok := msg.(protocol.Envelope); ok {
		f.json = append(f.json, env)
	}
}

func (f *fakeClient) SendBinary(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binary = append(f.binary, data)
}

func (f *fakeClient) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.json))
	for i, env := range f.json {
		out[i] = env.T
	}
	return out
}

func joinFake(t *testing.T, r *Room, name string) (*Peer, *fakeClient) {
	t.Helper()
	p := r.AddPeer(name)
	if p == nil {
		t.Fatalf("AddPeer(%s) returned nil", name)
	}
	c := &fakeClient{}
	r.SetClient(p.ID, c)
	return p, c
}

func TestRoomCapacity(t *testing.T) {
	r := NewRoom(nil)
	for i := 0; i < maxPeersPerRoom; i++ {
		if r.AddPeer("p") == nil {
			t.Fatalf("peer %d rejected", i)
		}
	}
	if r.AddPeer("late") != nil {
		t.Error("room should be full")
	}
	if r.PeerCount() != maxPeersPerRoom {
		t.Errorf("PeerCount = %d", r.PeerCount())
	}
}

func TestRoomPeerJoinAndLeave(t *testing.T) {
	r := NewRoom(nil)
	a, ca := joinFake(t, r, "Alice")
	b, cb := joinFake(t, r, "Bob")

	if got := ca.types(); len(got) != 1 || got[0] != protocol.MsgPeerJoin {
		t.Fatalf("a saw %v, want [peer_join]", got)
	}
	if len(cb.types()) != 0 {
		t.Errorf("joining peer should not hear its own join, got %v", cb.types())
	}
	if ids := r.PeerIDs(b.ID); len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("PeerIDs = %v", ids)
	}

	if !r.RemovePeer(b.ID) {
		t.Fatal("RemovePeer returned false")
	}
	if r.RemovePeer(b.ID) {
		t.Error("second RemovePeer should report false")
	}
	got := ca.types()
	if len(got) != 2 || got[1] != protocol.MsgPeerLeave {
		t.Errorf("a saw %v, want peer_leave last", got)
	}
	pm, _ := ca.json[1].Data.(protocol.PeerMsg)
	if pm.ID != b.ID || pm.Name != "Bob" {
		t.Errorf("peer_leave = %+v", pm)
	}
	if r.HasPeer(b.ID) {
		t.Error("removed peer still present")
	}
}

func TestRoomRelayExcludesSender(t *testing.T) {
	r := NewRoom(nil)
	a, ca := joinFake(t, r, "Alice")
	_, cb := joinFake(t, r, "Bob")
	_, cc := joinFake(t, r, "Cara")

	fx := combat.SyncEffect{AbilityID: combat.AbilityArcaneBeam, CasterID: "forged", Direction: combat.Vec3{Z: 1}, Range: 20}
	if !r.Relay(a.ID, fx) {
		t.Fatal("valid effect rejected")
	}
	if len(ca.binary) != 0 {
		t.Error("sender received its own effect")
	}
	for name, c := range map[string]*fakeClient{"bob": cb, "cara": cc} {
		if len(c.binary) != 1 {
			t.Fatalf("%s got %d frames", name, len(c.binary))
		}
		got, err := protocol.DecodeRelayed(c.binary[0])
		if err != nil {
			t.Fatal(err)
		}
		if got.From != a.ID || got.Effect.CasterID != a.ID || got.Effect.Range != 20 {
			t.Errorf("%s got %+v", name, got)
		}
	}
	if r.Relayed() != 1 {
		t.Errorf("Relayed = %d", r.Relayed())
	}
}

func TestRoomRelayFromStranger(t *testing.T) {
	r := NewRoom(nil)
	_, ca := joinFake(t, r, "Alice")
	if r.Relay("ghost", combat.SyncEffect{AbilityID: combat.AbilityBlizzard}) {
		t.Error("effect from a non-member relayed")
	}
	if len(ca.binary) != 0 {
		t.Error("stranger effect delivered")
	}
}

func TestValidEffect(t *testing.T) {
	ok := combat.SyncEffect{AbilityID: combat.AbilityBlizzard, Position: combat.Vec3{X: 2}, Duration: 6000}
	if !validEffect(ok) {
		t.Error("blizzard should be valid")
	}

	bad := map[string]combat.SyncEffect{
		"unknown":      {AbilityID: "meteor"},
		"local only":   {AbilityID: combat.AbilitySwordSweep},
		"nan position": {AbilityID: combat.AbilityBlizzard, Position: combat.Vec3{X: math.NaN()}},
		"inf radius":   {AbilityID: combat.AbilityBlizzard, Radius: math.Inf(1)},
		"inf jump":     {AbilityID: combat.AbilityChainLightning, Jumps: []combat.Vec3{{Y: math.Inf(-1)}}},
		"neg duration": {AbilityID: combat.AbilityBlizzard, Duration: -1},
		"many jumps":   {AbilityID: combat.AbilityChainLightning, Jumps: make([]combat.Vec3, maxEffectJumps+1)},
	}
	for name, fx := range bad {
		if validEffect(fx) {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestPeerEnvelopeShape(t *testing.T) {
	raw, err := json.Marshal(protocol.Envelope{T: protocol.MsgPeerJoin, Data: protocol.PeerMsg{ID: "ab12", Name: "Bob"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"t":"peer_join","d":{"id":"ab12","name":"Bob"}}` {
		t.Errorf("envelope = %s", raw)
	}
}
