// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor serves the live node state over HTTP and websocket.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/techo_node/internal/radio"
	"github.com/relabs-tech/techo_node/internal/status"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // bench tool on the local network
	},
}

// Event is one websocket message.
type Event struct {
	Type     string           `json:"type"` // snapshot, beacon, packet
	Snapshot *status.Snapshot `json:"snapshot,omitempty"`
	Beacon   []string         `json:"beacon,omitempty"`
	Packet   *radio.Packet    `json:"packet,omitempty"`
}

// clientQueue is how many events a slow websocket client may lag behind
// before events are dropped for it.
const clientQueue = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server keeps the latest snapshot and pushes events to websocket clients.
type Server struct {
	log *slog.Logger

	mu      sync.RWMutex
	last    *status.Snapshot
	clients map[*client]struct{}
}

func New(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, clients: make(map[*client]struct{})}
}

// Handler routes /api/state, /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("monitor: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeClients()
		if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) && err == nil {
			err = serveErr
		}
		return err
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		s.log.Warn("monitor: json encode error", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("monitor: websocket upgrade error", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientQueue)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		if msg, err := json.Marshal(Event{Type: "snapshot", Snapshot: s.last}); err == nil {
			c.send <- msg
		}
	}
	s.mu.Unlock()

	go s.writeLoop(c)

	// Reads only detect the peer closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("monitor: websocket error", "error", err)
			}
			break
		}
	}
	s.drop(c)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("monitor: marshal event", "error", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.log.Debug("monitor: client lagging, event dropped", "type", ev.Type)
		}
	}
}

func (s *Server) Snapshot(snap status.Snapshot) {
	s.mu.Lock()
	s.last = &snap
	s.mu.Unlock()
	s.broadcast(Event{Type: "snapshot", Snapshot: &snap})
}

func (s *Server) Beacon(_ status.Snapshot, frames []string) {
	s.broadcast(Event{Type: "beacon", Beacon: frames})
}

func (s *Server) Received(p radio.Packet) {
	s.broadcast(Event{Type: "packet", Packet: &p})
}
