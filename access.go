package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	inviteTTL         = 24 * time.Hour
	inviteSecretKey   = "invite_secret"
	minPassLen        = 4
	maxPassBytes      = 72 // bcrypt input limit
	joinAttemptWindow = time.Minute
	maxJoinAttempts   = 10
)

// bcryptCost is a var so tests can lower it
var bcryptCost = 12

var (
	ErrBadPass         = fmt.Errorf("passphrase must be %d-%d bytes", minPassLen, maxPassBytes)
	ErrWrongPass       = errors.New("wrong passphrase")
	ErrTooManyAttempts = errors.New("too many join attempts, try again later")
	ErrInvalidInvite   = errors.New("invalid invite")
	ErrInternal        = errors.New("internal error")
)

// inviteClaims bind an invite ticket to one session
type inviteClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Gatekeeper decides who may join a private session. The creator sets a
// passphrase (stored as a bcrypt hash on the session); members receive signed
// invite tickets for that session which admit a holder without it.
type Gatekeeper struct {
	secret []byte
	log    *zap.Logger

	mu       sync.Mutex
	attempts map[string]*attemptWindow // ip|sid -> passphrase attempts
}

type attemptWindow struct {
	n       int
	resetAt time.Time
}

// NewGatekeeper loads the invite signing key from db, creating one on first
// start. A nil db keeps the key in memory, so tickets die with the process.
func NewGatekeeper(db *DB, log *zap.Logger) *Gatekeeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gatekeeper{
		secret:   inviteSecret(db, log),
		log:      log,
		attempts: make(map[string]*attemptWindow),
	}
}

func inviteSecret(db *DB, log *zap.Logger) []byte {
	if db != nil {
		if b, err := hex.DecodeString(db.GetSetting(inviteSecretKey)); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("invite secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(inviteSecretKey, hex.EncodeToString(secret)); err != nil {
			log.Warn("persist invite secret", zap.Error(err))
		}
	}
	return secret
}

// HashPass returns the stored form of a session passphrase. An empty
// passphrase makes an open session and hashes to "".
func (g *Gatekeeper) HashPass(pass string) (string, error) {
	if pass == "" {
		return "", nil
	}
	if len(pass) < minPassLen || len(pass) > maxPassBytes {
		return "", ErrBadPass
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcryptCost)
	if err != nil {
		g.log.Error("hash passphrase", zap.Error(err))
		return "", ErrInternal
	}
	return string(hash), nil
}

// Admit checks a join request. Open sessions admit everyone; private ones
// need an invite for this session or the passphrase. Passphrase guesses are
// limited per client IP and session.
func (g *Gatekeeper) Admit(sess *Session, pass, invite, ip string) error {
	if !sess.Private() {
		return nil
	}
	if invite != "" {
		return g.VerifyInvite(invite, sess.ID)
	}
	if !g.allow(ip + "|" + sess.ID) {
		return ErrTooManyAttempts
	}
	if bcrypt.CompareHashAndPassword([]byte(sess.passHash), []byte(pass)) != nil {
		return ErrWrongPass
	}
	return nil
}

// IssueInvite signs a ticket admitting its holder to session sid
func (g *Gatekeeper) IssueInvite(sid string) (string, error) {
	now := time.Now()
	claims := inviteClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(inviteTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		g.log.Error("sign invite", zap.String("sid", sid), zap.Error(err))
		return "", ErrInternal
	}
	return token, nil
}

// VerifyInvite checks that token is an unexpired ticket for session sid
func (g *Gatekeeper) VerifyInvite(token, sid string) error {
	var claims inviteClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}
	if claims.SessionID != sid {
		return fmt.Errorf("%w: issued for another session", ErrInvalidInvite)
	}
	return nil
}

func (g *Gatekeeper) allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	w, ok := g.attempts[key]
	if !ok || now.After(w.resetAt) {
		g.attempts[key] = &attemptWindow{n: 1, resetAt: now.Add(joinAttemptWindow)}
		return true
	}
	w.n++
	return w.n <= maxJoinAttempts
}
