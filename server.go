package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StatsResponse is served by /api/stats
type StatsResponse struct {
	Peers         int            `json:"peers"`
	Sessions      int            `json:"sessions"`
	ActivePeers   int            `json:"active_peers"`
	Events        map[string]int `json:"events"`
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("upgrade", zap.String("ip", ip), zap.Error(err))
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub, hub.sessions.ListSessions())
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Peers:    hub.ClientCount(),
			Sessions: hub.sessions.Count(),
			Events:   map[string]int{},
		}
		if hub.analytics != nil {
			if counts, err := hub.analytics.EventCounts(7); err != nil {
				hub.log.Warn("event counts", zap.Error(err))
			} else {
				resp.Events = counts
			}
			if n, err := hub.analytics.ActivePeers(7); err != nil {
				hub.log.Warn("active peers", zap.Error(err))
			} else {
				resp.ActivePeers = n
			}
		}
		writeJSON(w, hub, resp)
	})

	// Invite QR codes: /qr/<sid>.png, plus ?invite=<ticket> for private sessions
	mux.HandleFunc("GET /qr/{file}", func(w http.ResponseWriter, r *http.Request) {
		sid, ok := strings.CutSuffix(r.PathValue("file"), ".png")
		var sess *Session
		if ok {
			sess = hub.sessions.GetSession(sid)
		}
		if sess == nil {
			http.NotFound(w, r)
			return
		}
		invite := r.URL.Query().Get("invite")
		if !sess.Private() {
			invite = ""
		} else if err := hub.gate.VerifyInvite(invite, sid); err != nil {
			// Private sessions look absent without a ticket
			http.NotFound(w, r)
			return
		}
		png, err := qrcode.Encode(inviteURL(hub.publicURL, r, sid, invite), qrcode.Medium, qrSize)
		if err != nil {
			hub.log.Error("qr encode", zap.String("sid", sid), zap.Error(err))
			http.Error(w, "qr failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	return mux
}

// inviteURL joins the public base URL (or the request host) with sid and,
// when set, the invite ticket
func inviteURL(base string, r *http.Request, sid, invite string) string {
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	u := strings.TrimSuffix(base, "/") + "/" + sid
	if invite != "" {
		u += "?invite=" + url.QueryEscape(invite)
	}
	return u
}

func writeJSON(w http.ResponseWriter, hub *Hub, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hub.log.Warn("write json", zap.Error(err))
	}
}
