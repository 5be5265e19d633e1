package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

const relayHandshakeWait = 5 * time.Second

// relayConfig selects the relay session. An empty Session creates one, made
// private when Pass is set.
type relayConfig struct {
	URL     string
	Session string
	Pass    string
}

// relayClient forwards synced effects to a relay session
type relayClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.Logger
	sent int
	errs int
	id   string
}

// dialRelay connects to cfg.URL and joins cfg.Session, creating a session
// when none is given. The creator joins with its invite ticket.
func dialRelay(cfg relayConfig, name string, log *zap.Logger) (*relayClient, string, error) {
	conn, _, err := websocket.DefaultDialer.Dial(cfg.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("dial relay: %w", err)
	}
	rc := &relayClient{conn: conn, log: log}
	join := protocol.JoinMsg{Name: name, SessionID: cfg.Session, Pass: cfg.Pass}
	if join.SessionID == "" {
		if err := rc.sendJSON(protocol.MsgCreate, protocol.CreateMsg{Name: name, SessionName: "simulator", Pass: cfg.Pass}); err != nil {
			conn.Close()
			return nil, "", err
		}
		var created protocol.CreatedMsg
		if err := rc.await(protocol.MsgCreated, &created); err != nil {
			conn.Close()
			return nil, "", err
		}
		join.SessionID, join.Invite, join.Pass = created.SID, created.Invite, ""
	}
	if err := rc.sendJSON(protocol.MsgJoin, join); err != nil {
		conn.Close()
		return nil, "", err
	}
	var welcome protocol.WelcomeMsg
	if err := rc.await(protocol.MsgWelcome, &welcome); err != nil {
		conn.Close()
		return nil, "", err
	}
	rc.id = welcome.ID
	go rc.drain()
	return rc, join.SessionID, nil
}

func (rc *relayClient) sendJSON(t string, data interface{}) error {
	raw, err := json.Marshal(protocol.Envelope{T: t, Data: data})
	if err != nil {
		return err
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.conn.WriteMessage(websocket.TextMessage, raw)
}

// await reads text frames until one of type t arrives
func (rc *relayClient) await(t string, out interface{}) error {
	rc.conn.SetReadDeadline(time.Now().Add(relayHandshakeWait))
	defer rc.conn.SetReadDeadline(time.Time{})
	for {
		_, raw, err := rc.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("relay handshake: %w", err)
		}
		var env protocol.InEnvelope
		if json.Unmarshal(raw, &env) != nil {
			continue
		}
		switch env.T {
		case t:
			return json.Unmarshal(env.D, out)
		case protocol.MsgError:
			var e protocol.ErrorMsg
			json.Unmarshal(env.D, &e)
			return fmt.Errorf("relay: %s", e.Msg)
		}
	}
}

// drain discards inbound traffic so pings are answered
func (rc *relayClient) drain() {
	for {
		if _, _, err := rc.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// RelayEffect implements combat.EffectRelay
func (rc *relayClient) RelayEffect(fx combat.SyncEffect) {
	frame, err := protocol.EncodeEffectFrame(fx)
	if err != nil {
		rc.log.Warn("encode effect", zap.Error(err))
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err := rc.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		rc.errs++
		if rc.errs == 1 {
			rc.log.Warn("relay write", zap.Error(err))
		}
		return
	}
	rc.sent++
}

func (rc *relayClient) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return rc.conn.Close()
}
