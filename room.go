package main

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

const (
	maxPeersPerRoom = 8
	maxEffectJumps  = 16
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Peer is one player connected to a room
type Peer struct {
	ID       string
	Name     string
	JoinedAt time.Time
}

// Room relays synced effects between the peers of one session
type Room struct {
	mu      sync.RWMutex
	peers   map[string]*Peer
	clients map[string]Broadcaster // peerID -> client
	order   []string
	relayed uint64
	log     *zap.Logger
}

// NewRoom creates an empty Room
func NewRoom(log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	return &Room{
		peers:   make(map[string]*Peer),
		clients: make(map[string]Broadcaster),
		log:     log,
	}
}

// AddPeer adds a new peer to the room. Returns nil if the room is full.
func (r *Room) AddPeer(name string) *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.peers) >= maxPeersPerRoom {
		return nil
	}
	p := &Peer{ID: GenerateID(4), Name: name, JoinedAt: time.Now()}
	r.peers[p.ID] = p
	r.order = append(r.order, p.ID)
	return p
}

// RemovePeer removes a peer and tells the others. It reports whether the peer
// was present.
func (r *Room) RemovePeer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[id]
	if !ok {
		return false
	}
	delete(r.peers, id)
	delete(r.clients, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.broadcastMsg(protocol.Envelope{T: protocol.MsgPeerLeave, Data: protocol.PeerMsg{ID: p.ID, Name: p.Name}}, "")
	r.log.Debug("peer left", zap.String("peer", id), zap.Duration("stayed", time.Since(p.JoinedAt)))
	return true
}

// SetClient associates a broadcaster with a peer and announces the peer to
// everyone already in the room.
func (r *Room) SetClient(peerID string, client Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[peerID]
	if !ok {
		return
	}
	r.clients[peerID] = client
	r.broadcastMsg(protocol.Envelope{T: protocol.MsgPeerJoin, Data: protocol.PeerMsg{ID: p.ID, Name: p.Name}}, peerID)
}

// HasPeer reports whether id is in the room
func (r *Room) HasPeer(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.peers[id]
	return ok
}

// PeerCount returns the number of peers
func (r *Room) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// PeerIDs returns peer ids in join order, excluding except
func (r *Room) PeerIDs(except string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if id != except {
			out = append(out, id)
		}
	}
	return out
}

// Relayed returns how many effects the room has forwarded
func (r *Room) Relayed() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.relayed
}

// Relay forwards fx from peer from to every other peer as a binary msgpack
// frame. Invalid effects are dropped and reported as false.
func (r *Room) Relay(from string, fx combat.SyncEffect) bool {
	if !validEffect(fx) {
		r.log.Debug("effect rejected", zap.String("peer", from), zap.String("ability", fx.AbilityID))
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[from]; !ok {
		return false
	}
	fx.CasterID = from
	data, err := protocol.EncodeRelayed(protocol.RelayedEffect{From: from, Effect: fx})
	if err != nil {
		r.log.Warn("encode relayed effect", zap.Error(err))
		return false
	}
	for id, c := range r.clients {
		if id == from {
			continue
		}
		c.SendBinary(data)
	}
	r.relayed++
	return true
}

// broadcastMsg sends a message to all clients in the room except one
func (r *Room) broadcastMsg(msg protocol.Envelope, except string) {
	for id, client := range r.clients {
		if id == except {
			continue
		}
		client.SendJSON(msg)
	}
}

var relayCatalog = combat.DefaultAbilities()

// validEffect rejects unknown abilities and non-finite geometry
func validEffect(fx combat.SyncEffect) bool {
	ab, ok := relayCatalog[fx.AbilityID]
	if !ok || !ab.Synced {
		return false
	}
	if len(fx.Jumps) > maxEffectJumps {
		return false
	}
	vecs := append([]combat.Vec3{fx.Position, fx.Direction}, fx.Jumps...)
	for _, v := range vecs {
		if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
			return false
		}
	}
	return finite(fx.Radius) && finite(fx.Range) && finite(fx.Width) && finite(fx.HalfAngle) && fx.Duration >= 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
