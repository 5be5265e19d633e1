// Package protocol defines the relay wire format shared by the server, the
// simulator and the schema generator.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
)

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgCreate   = "create" // create session
	MsgList     = "list"   // list sessions
	MsgCheck    = "check"  // check if session exists
	MsgEffect   = "effect"
)

// Server -> Client message types
const (
	MsgWelcome   = "welcome"
	MsgSessions  = "sessions"
	MsgJoined    = "joined"
	MsgCreated   = "created" // session created, client should navigate
	MsgError     = "error"
	MsgChecked   = "checked" // session check response
	MsgPeerJoin  = "peer_join"
	MsgPeerLeave = "peer_leave"
)

// EffectFrameMarker prefixes binary client frames carrying a msgpack SyncEffect
const EffectFrameMarker byte = 0x02

// ErrNotEffectFrame is returned when a binary frame lacks the effect marker
var ErrNotEffectFrame = errors.New("not an effect frame")

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to join a session. Private sessions
// need either Pass or an Invite issued for that session.
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Pass      string `json:"pass,omitempty"`
	Invite    string `json:"invite,omitempty"`
}

// CreateMsg is sent when a player wants to create a session. A non-empty
// Pass makes the session private.
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Pass        string `json:"pass,omitempty"`
}

// CreatedMsg answers create. Invite is set for private sessions so the
// creator can join without retyping the passphrase.
type CreatedMsg struct {
	SID    string `json:"sid"`
	Invite string `json:"invite,omitempty"`
}

// JoinedMsg confirms a join. Members of private sessions get a fresh invite
// to share.
type JoinedMsg struct {
	SID    string `json:"sid"`
	Invite string `json:"invite,omitempty"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
	Private bool   `json:"private,omitempty"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Private bool   `json:"private"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID    string   `json:"id"`
	Peers []string `json:"peers,omitempty"`
}

// PeerMsg announces a peer entering or leaving the room
type PeerMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RelayedEffect is what other room members receive for a cast
type RelayedEffect struct {
	From   string            `json:"from" msgpack:"from"`
	Effect combat.SyncEffect `json:"effect" msgpack:"effect"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// EncodeEffectFrame builds a binary client frame: marker byte + msgpack body
func EncodeEffectFrame(fx combat.SyncEffect) ([]byte, error) {
	body, err := msgpack.Marshal(&fx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(body)+1)
	out[0] = EffectFrameMarker
	copy(out[1:], body)
	return out, nil
}

// DecodeEffectFrame parses a frame built by EncodeEffectFrame
func DecodeEffectFrame(frame []byte) (combat.SyncEffect, error) {
	var fx combat.SyncEffect
	if len(frame) < 2 || frame[0] != EffectFrameMarker {
		return fx, ErrNotEffectFrame
	}
	err := msgpack.Unmarshal(frame[1:], &fx)
	return fx, err
}

// EncodeRelayed marshals a relayed effect for binary delivery
func EncodeRelayed(r RelayedEffect) ([]byte, error) {
	return msgpack.Marshal(&r)
}

// DecodeRelayed parses a binary relayed effect
func DecodeRelayed(data []byte) (RelayedEffect, error) {
	var r RelayedEffect
	err := msgpack.Unmarshal(data, &r)
	return r, err
}
