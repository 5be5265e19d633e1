package main

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

const (
	maxSessions    = 100
	maxSessionName = 30
)

// SessionIdleTimeout is how long a session may sit with no peers before it
// is removed
var SessionIdleTimeout = 30 * time.Second

// Session represents a relay room that players can join
type Session struct {
	ID        string
	Name      string
	Room      *Room
	CreatedAt time.Time

	passHash   string    // bcrypt; empty for open sessions
	lastActive time.Time // guarded by SessionManager.mu
}

// Private reports whether joining needs a passphrase or invite
func (s *Session) Private() bool {
	return s.passHash != ""
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	log       *zap.Logger
	analytics *Analytics
}

// NewSessionManager creates a new SessionManager. analytics may be nil.
func NewSessionManager(log *zap.Logger, analytics *Analytics) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		sessions:  make(map[string]*Session),
		log:       log,
		analytics: analytics,
	}
}

// CreateSession creates a new session guarded by passHash (see
// Gatekeeper.HashPass). Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name, passHash string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	now := time.Now()
	sess := &Session{
		ID:         GenerateUUID(),
		Name:       name,
		Room:       NewRoom(sm.log),
		CreatedAt:  now,
		passHash:   passHash,
		lastActive: now,
	}
	sm.sessions[sess.ID] = sess
	sm.scheduleReap(sess.ID)
	sm.log.Info("session created", zap.String("sid", sess.ID), zap.String("name", name), zap.Bool("private", sess.Private()))
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionStart, sess.ID, "", "")
	}
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive refreshes a session's idle clock
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemovePlayer removes a peer from a session. Sessions left empty are reaped
// once SessionIdleTimeout passes without anyone joining.
func (sm *SessionManager) RemovePlayer(sessionID, peerID string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[sessionID]
	if ok {
		sess.lastActive = time.Now()
	}
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Room.RemovePeer(peerID)
	if sess.Room.PeerCount() == 0 {
		sm.mu.Lock()
		sm.scheduleReap(sessionID)
		sm.mu.Unlock()
	}
}

// scheduleReap must be called with sm.mu held
func (sm *SessionManager) scheduleReap(id string) {
	timeout := SessionIdleTimeout
	time.AfterFunc(timeout, func() { sm.reapIfIdle(id, timeout) })
}

func (sm *SessionManager) reapIfIdle(id string, timeout time.Duration) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if !ok || sess.Room.PeerCount() > 0 || time.Since(sess.lastActive) < timeout {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()
	sm.log.Info("session reaped", zap.String("sid", id), zap.Uint64("relayed", sess.Room.Relayed()))
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionEnd, id, "", "")
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []protocol.SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]protocol.SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, protocol.SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Room.PeerCount(),
			Private: sess.Private(),
		})
	}
	return list
}
