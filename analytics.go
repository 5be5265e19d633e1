package main

import (
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types for analytics tracking
const (
	EvtSessionStart  = "session_start"
	EvtSessionEnd    = "session_end"
	EvtPlayerJoin    = "player_join"
	EvtJoinDenied    = "join_denied"
	EvtEffectRelayed = "effect_relayed"
)

const (
	analyticsBuffer     = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	SessionID string
	PeerID    string
	Data      string // ability id, denial reason, ...
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	log    *zap.Logger
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAnalytics creates and starts the analytics background writer. db may
// be nil, in which case events are discarded.
func NewAnalytics(db *DB, log *zap.Logger) *Analytics {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analytics{
		db:     db,
		log:    log,
		events: make(chan AnalyticsEvent, analyticsBuffer),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, sessionID, peerID, data string) {
	select {
	case <-a.stop:
		return
	default:
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		SessionID: sessionID,
		PeerID:    peerID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full: drop rather than block a connection pump
	}
}

// Stop flushes pending events and shuts down the writer
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for drained := false; !drained; {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					drained = true
				}
			}
			a.flush(batch)
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.log.Error("analytics: begin tx", zap.Error(err))
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, session_id, peer_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		a.log.Error("analytics: prepare", zap.Error(err))
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		pid := sql.NullString{String: evt.PeerID, Valid: evt.PeerID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, sid, pid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			a.log.Warn("analytics: insert", zap.String("type", evt.Type), zap.Error(err))
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Error("analytics: commit", zap.Error(err))
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return map[string]int{}, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// ActivePeers returns distinct peers seen in rooms in the last N days
func (a *Analytics) ActivePeers(days int) (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT peer_id) FROM analytics_events
		WHERE peer_id IS NOT NULL
		AND created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
	`, days).Scan(&count)
	return count, err
}
