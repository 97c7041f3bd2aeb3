package socket

import (
	"errors"
	"sync"
)

// Conn is the subset of *websocket.Conn the registry needs. Tests swap
// in fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

var ErrClosed = errors.New("connection closed")

// Agent is one live authenticated socket. Writes are serialized by the
// per-connection mutex since gorilla allows a single concurrent writer.
type Agent struct {
	ServerID uint

	mu     sync.Mutex
	conn   Conn
	closed bool
}

func (a *Agent) Send(v interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.conn.WriteJSON(v)
}

func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.conn.Close()
}

func (a *Agent) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed
}

// Registry maps server id to the single live agent socket for that
// server. A new connection for an id replaces (and closes) the old one.
type Registry struct {
	mu   sync.RWMutex
	byID map[uint]*Agent
}

func NewRegistry() *Registry { return &Registry{byID: make(map[uint]*Agent)} }

func (r *Registry) Register(serverID uint, c Conn) *Agent {
	a := &Agent{ServerID: serverID, conn: c}
	r.mu.Lock()
	old := r.byID[serverID]
	r.byID[serverID] = a
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return a
}

// Unregister removes the mapping only while it still points at the
// given agent, so a stale disconnect never evicts a newer socket.
func (r *Registry) Unregister(a *Agent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byID[a.ServerID]; ok && cur == a {
		delete(r.byID, a.ServerID)
		return true
	}
	return false
}

func (r *Registry) Lookup(serverID uint) (*Agent, bool) {
	r.mu.RLock()
	a, ok := r.byID[serverID]
	r.mu.RUnlock()
	return a, ok
}

func (r *Registry) IsOnline(serverID uint) bool {
	_, ok := r.Lookup(serverID)
	return ok
}

// IDFor finds the server id owning a connection. Full scan; the fleet
// is small enough that this beats a second index.
func (r *Registry) IDFor(c Conn) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, a := range r.byID {
		if a.conn == c {
			return id, true
		}
	}
	return 0, false
}

func (r *Registry) OnlineIDs() []uint {
	r.mu.RLock()
	out := make([]uint, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	r.mu.RUnlock()
	return out
}
