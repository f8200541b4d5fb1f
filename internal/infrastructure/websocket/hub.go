// Package websocket streams turn lifecycle events to browser clients, grouped by session.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edachat/backend/internal/domain/events"
	"github.com/edachat/backend/internal/infrastructure/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Hub fans session events out to the connections watching that session.
type Hub struct {
	sessions map[string]map[*Connection]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// Connection is one websocket client subscribed to a session.
type Connection struct {
	SessionID string
	Send      chan []byte
	conn      *websocket.Conn
	closeOnce sync.Once
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.NewModuleLogger("websocket", "hub"),
	}
}

// Register adds conn to its session group.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[conn.SessionID] == nil {
		h.sessions[conn.SessionID] = make(map[*Connection]bool)
	}
	h.sessions[conn.SessionID][conn] = true
}

// Unregister removes conn and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(conn)
}

// remove must be called with mu held.
func (h *Hub) remove(conn *Connection) {
	group, ok := h.sessions[conn.SessionID]
	if !ok {
		return
	}
	if _, ok := group[conn]; !ok {
		return
	}
	delete(group, conn)
	conn.closeOnce.Do(func() { close(conn.Send) })
	if len(group) == 0 {
		delete(h.sessions, conn.SessionID)
	}
}

// Count returns the number of connections watching sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// BroadcastToSession sends data as JSON to every connection of sessionID. Connections
// whose buffer is full are dropped.
func (h *Hub) BroadcastToSession(sessionID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.sessions[sessionID] {
		select {
		case conn.Send <- payload:
		default:
			h.logger.Warn("Send buffer full, dropping connection", "session_id", sessionID)
			h.remove(conn)
		}
	}
	return nil
}

// HandleEvent forwards session-scoped domain events to the matching connections.
func (h *Hub) HandleEvent(event events.Event) error {
	switch e := event.(type) {
	case *events.TurnEvent:
		return h.BroadcastToSession(e.SessionID, e)
	case *events.SessionEvent:
		return h.BroadcastToSession(e.SessionID, e)
	}
	return nil
}

// Subscribe attaches the hub to bus and returns the unsubscribe function.
func (h *Hub) Subscribe(bus events.EventBus) func() {
	return bus.SubscribeMultiple([]events.EventType{
		events.TurnStateChanged,
		events.TurnCompleted,
		events.SessionOpened,
		events.SessionCleared,
	}, h)
}

// ServeSession upgrades the request and streams events of sessionID until the client
// disconnects.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", "error", err)
		return
	}
	conn := &Connection{SessionID: sessionID, Send: make(chan []byte, sendBuffer), conn: ws}
	h.Register(conn)
	h.logger.Debug("Client connected", "session_id", sessionID)

	go h.writePump(conn)
	h.readPump(conn)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(conn *Connection) {
	defer func() {
		h.Unregister(conn)
		_ = conn.conn.Close()
		h.logger.Debug("Client disconnected", "session_id", conn.SessionID)
	}()

	conn.conn.SetReadLimit(4096)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Connection read error", "session_id", conn.SessionID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
