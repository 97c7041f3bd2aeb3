package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"servermon/backend/global"

	"github.com/gorilla/websocket"
)

// Dashboard event names pushed over the operator socket.
const (
	EvMetricsUpdated          = "MetricsUpdated"
	EvWatchlistMetricsUpdated = "WatchlistMetricsUpdated"
	EvCommandSuccess          = "CommandSuccess"
	EvCommandFailed           = "CommandFailed"
	EvAlertTriggered          = "AlertTriggered"
	EvServiceRestartAttempted = "ServiceRestartAttempted"
	EvServiceRecovered        = "ServiceRecovered"
	EvBackupCompleted         = "BackupCompleted"
)

// ServerGroup names the hub group carrying one server's events.
func ServerGroup(serverID uint) string { return fmt.Sprintf("server-%d", serverID) }

const clientSendBuffer = 64

// Client is one operator dashboard connection subscribed to a set of
// server groups.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	groups map[string]bool
	mu     sync.Mutex
}

func (c *Client) Subscribe(group string) {
	c.mu.Lock()
	c.groups[group] = true
	c.mu.Unlock()
}

func (c *Client) Unsubscribe(group string) {
	c.mu.Lock()
	delete(c.groups, group)
	c.mu.Unlock()
}

func (c *Client) inGroup(group string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups[group]
}

// WritePump drains the send channel onto the socket. Run as a goroutine
// per client; returns when the channel closes or a write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub fans dashboard events out to operator clients by server group.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub { return &Hub{clients: make(map[*Client]bool)} }

func (h *Hub) Add(conn *websocket.Conn) *Client {
	c := &Client{conn: conn, send: make(chan []byte, clientSendBuffer), groups: make(map[string]bool)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	go c.WritePump()
	return c
}

func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client subscribed to the group.
// Slow clients get dropped rather than stalling the hub.
func (h *Hub) Broadcast(group, event string, data interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"event": event,
		"group": group,
		"data":  data,
	})
	if err != nil {
		global.Logger.Error().Err(err).Str("event", event).Msg("hub marshal failed")
		return
	}

	h.mu.RLock()
	var stalled []*Client
	for c := range h.clients {
		if !c.inGroup(group) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		global.Logger.Warn().Str("group", group).Msg("dropping stalled dashboard client")
		h.Remove(c)
	}
}
