// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

// Package relay publishes decoded frames to WebSocket subscribers. Each
// subscriber gets one JSON message per frame; slow subscribers are dropped
// rather than allowed to stall the tap.
package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/internal/tap"
	"github.com/optiline/ljscope/pkg/ljv7"
)

// Message is the JSON shape sent to subscribers for every frame.
type Message struct {
	Time      time.Time `json:"time"`
	Origin    string    `json:"origin"`
	Direction string    `json:"direction"`
	Opcode    string    `json:"opcode"`
	// ReturnCode is present on replies only.
	ReturnCode *uint8   `json:"return_code,omitempty"`
	BodyLength int      `json:"body_length"`
	Anomalies  []string `json:"anomalies,omitempty"`
	// Text is the full human-readable rendering of the record.
	Text string `json:"text"`
}

// Auth holds the optional HTTP basic-auth credentials for subscribers.
type Auth struct {
	Username string
	Password string
}

// Enabled reports whether credentials are configured.
func (a Auth) Enabled() bool {
	return a.Password != ""
}

const clientBuffer = 64

// Server is a WebSocket fan-out hub. It implements the tap sink interface
// so it can be wired directly into a Tap's fanout.
type Server struct {
	auth Auth
	log  zerolog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New builds a relay server. Zero-value Auth disables authentication.
func New(auth Auth, log zerolog.Logger) *Server {
	return &Server{
		auth: auth,
		log:  log,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// Subscribers are read-only dashboards; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving the /ws subscription endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// ListenAndServe serves the relay on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info().Str("listen", addr).Bool("auth", s.auth.Enabled()).Msg("relay listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if s.auth.Enabled() && !s.checkAuth(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="ljscope"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Int("subscribers", n).Msg("subscriber connected")

	go s.writeLoop(c)
	// Drain (and discard) client messages so pings are answered and
	// disconnects are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
}

func (s *Server) checkAuth(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.auth.Password)) == 1
	return userOK && passOK
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(c)
			return
		}
	}
	c.conn.Close()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	c.conn.Close()
}

// SubscriberCount reports the number of connected subscribers.
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast sends raw bytes to every subscriber, dropping any whose send
// buffer is full.
func (s *Server) Broadcast(msg []byte) {
	s.mu.Lock()
	var stalled []*client
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	s.mu.Unlock()
	for _, c := range stalled {
		s.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("dropping slow subscriber")
		s.drop(c)
	}
}

// HandleEvent implements the tap sink interface.
func (s *Server) HandleEvent(ev tap.Event) {
	msg := Message{
		Time:       ev.Time,
		Origin:     ev.Origin.String(),
		Direction:  ev.Record.Direction().String(),
		Opcode:     ev.Record.Body.Opcode.String(),
		BodyLength: len(ev.Record.Frame.BodyBytes()),
		Text:       ljv7.FormatRecord(ev.Record),
	}
	if ev.Record.Direction() == ljv7.DirectionReply {
		rc := ev.Record.Body.ReturnCode
		msg.ReturnCode = &rc
	}
	for _, a := range ev.Record.Anomalies {
		msg.Anomalies = append(msg.Anomalies, a.Error())
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("relay marshal failed")
		return
	}
	s.Broadcast(data)
}

// HandleStreamError implements the tap sink interface.
func (s *Server) HandleStreamError(origin capture.Origin, err error) {
	data, merr := json.Marshal(map[string]string{
		"origin": origin.String(),
		"error":  err.Error(),
	})
	if merr != nil {
		return
	}
	s.Broadcast(data)
}
