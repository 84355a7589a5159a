package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

const wsWriteTimeout = 5 * time.Second

// WebSocketSink broadcasts the JSON record of every frame to the
// websocket clients connected to its handler.
type WebSocketSink struct {
	desc     Describer
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewWebSocketSink creates a sink with no clients.
func NewWebSocketSink(desc Describer, logger *log.Logger) *WebSocketSink {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketSink{
		desc:   desc,
		logger: logger.WithPrefix("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", r.RemoteAddr, "clients", n)

	go s.readLoop(conn)
}

// readLoop discards client messages until the connection closes.
func (s *WebSocketSink) readLoop(conn *websocket.Conn) {
	defer s.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketSink) remove(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
		s.logger.Debug("client disconnected", "remote", conn.RemoteAddr().String())
	}
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *WebSocketSink) Name() string { return "websocket" }

// Send writes the record to every client. Clients that fail the write are
// dropped.
func (s *WebSocketSink) Send(_ context.Context, f p25.Frame) error {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return nil
	}
	clients := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for c, m := range s.clients {
		clients[c] = m
	}
	s.mu.Unlock()

	data, err := json.Marshal(s.desc.Describe(f))
	if err != nil {
		return fmt.Errorf("sink: marshal record: %w", err)
	}

	var errs []error
	for conn, wmu := range clients {
		wmu.Lock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		err := conn.WriteMessage(websocket.TextMessage, data)
		wmu.Unlock()
		if err != nil {
			errs = append(errs, err)
			s.remove(conn)
		}
	}
	return errors.Join(errs...)
}

// Close disconnects every client.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.mu.Unlock()
	for conn, wmu := range clients {
		wmu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		wmu.Unlock()
		conn.Close()
	}
	return nil
}
