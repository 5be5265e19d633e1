package main

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	// Room membership, read by the hub on unregister
	locMu     sync.Mutex
	playerID  string
	sessionID string
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

func (c *Client) location() (string, string) {
	c.locMu.Lock()
	defer c.locMu.Unlock()
	return c.sessionID, c.playerID
}

func (c *Client) setLocation(sid, pid string) {
	c.locMu.Lock()
	defer c.locMu.Unlock()
	c.sessionID, c.playerID = sid, pid
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("ws read", zap.String("ip", c.remoteAddr), zap.Error(err))
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.log.Warn("rate limit exceeded, disconnecting", zap.String("ip", c.remoteAddr))
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryEffect(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error("marshal", zap.Error(err))
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.hub.log.Debug("unmarshal", zap.String("ip", c.remoteAddr), zap.Error(err))
		return
	}

	switch env.T {
	case protocol.MsgList:
		c.handleList()
	case protocol.MsgCreate:
		c.handleCreate(env.D)
	case protocol.MsgJoin:
		c.handleJoin(env.D)
	case protocol.MsgLeave:
		c.handleLeave()
	case protocol.MsgCheck:
		c.handleCheck(env.D)
	case protocol.MsgEffect:
		c.handleEffect(env.D)
	}
}

func (c *Client) handleList() {
	c.SendJSON(protocol.Envelope{T: protocol.MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg protocol.CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := cleanName(msg.SessionName, "Sanctum", maxSessionName)
	hash, err := c.hub.gate.HashPass(msg.Pass)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	sess := c.hub.sessions.CreateSession(sname, hash)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	created := protocol.CreatedMsg{SID: sess.ID}
	if sess.Private() {
		if created.Invite, err = c.hub.gate.IssueInvite(sess.ID); err != nil {
			c.sendError(err.Error())
			return
		}
	}
	c.SendJSON(protocol.Envelope{T: protocol.MsgCreated, Data: created})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg protocol.JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if sid, _ := c.location(); sid != "" {
		c.handleLeave()
	}
	name := cleanName(msg.Name, "Wanderer", maxNameLen)

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	if err := c.hub.gate.Admit(sess, msg.Pass, msg.Invite, c.remoteAddr); err != nil {
		c.hub.log.Debug("join denied", zap.String("ip", c.remoteAddr), zap.String("sid", sess.ID), zap.Error(err))
		c.hub.track(EvtJoinDenied, sess.ID, "", err.Error())
		if errors.Is(err, ErrInvalidInvite) {
			err = ErrInvalidInvite
		}
		c.sendError(err.Error())
		return
	}
	joined := protocol.JoinedMsg{SID: sess.ID}
	if sess.Private() {
		invite, err := c.hub.gate.IssueInvite(sess.ID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		joined.Invite = invite
	}

	peer := sess.Room.AddPeer(name)
	if peer == nil {
		c.sendError("session full")
		return
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.setLocation(sess.ID, peer.ID)

	c.SendJSON(protocol.Envelope{T: protocol.MsgJoined, Data: joined})
	c.SendJSON(protocol.Envelope{T: protocol.MsgWelcome, Data: protocol.WelcomeMsg{
		ID:    peer.ID,
		Peers: sess.Room.PeerIDs(peer.ID),
	}})
	sess.Room.SetClient(peer.ID, c)
	c.hub.track(EvtPlayerJoin, sess.ID, peer.ID, "")
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg protocol.CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(protocol.Envelope{T: protocol.MsgChecked, Data: protocol.CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(protocol.Envelope{T: protocol.MsgChecked, Data: protocol.CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Room.PeerCount(),
		Private: sess.Private(),
	}})
}

func (c *Client) handleLeave() {
	sid, pid := c.location()
	if sid == "" {
		return
	}
	c.hub.sessions.RemovePlayer(sid, pid)
	c.setLocation("", "")
}

// handleBinaryEffect decodes a 0x02-prefixed msgpack SyncEffect
func (c *Client) handleBinaryEffect(frame []byte) {
	fx, err := protocol.DecodeEffectFrame(frame)
	if err != nil {
		if !errors.Is(err, protocol.ErrNotEffectFrame) {
			c.hub.log.Debug("bad effect frame", zap.String("ip", c.remoteAddr), zap.Error(err))
		}
		return
	}
	c.relay(fx)
}

func (c *Client) handleEffect(data json.RawMessage) {
	var fx combat.SyncEffect
	if err := json.Unmarshal(data, &fx); err != nil {
		return
	}
	c.relay(fx)
}

func (c *Client) relay(fx combat.SyncEffect) {
	sid, pid := c.location()
	if sid == "" {
		return
	}
	sess := c.hub.sessions.GetSession(sid)
	if sess == nil {
		return
	}
	if sess.Room.Relay(pid, fx) {
		c.hub.sessions.MarkActive(sid)
		c.hub.track(EvtEffectRelayed, sid, pid, fx.AbilityID)
	}
}
