package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

type connEntry struct {
	client domain.Client
	conn   core.SignalConnection
}

// Registry is the single source of truth for the id -> live-connection
// mapping. Rooms hold identifiers only; anything resolving an identifier
// goes through here and must tolerate "not found".
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ClientID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ClientID]*connEntry)}
}

// Register allocates a fresh identity for an accepted connection.
func (r *Registry) Register(conn core.SignalConnection, remoteAddr string) domain.ClientID {
	id := domain.NewClientID()
	r.mu.Lock()
	r.conns[id] = &connEntry{
		client: domain.Client{
			ID:         id,
			RemoteAddr: remoteAddr,
			CreatedAt:  time.Now(),
		},
		conn: conn,
	}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("client", string(id)).Str("addr", remoteAddr).Msg("registered connection")
	return id
}

// Lookup returns a snapshot of the connection state.
func (r *Registry) Lookup(id domain.ClientID) (domain.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.client, true
	}
	return domain.Client{}, false
}

// Conn returns the transport handle for an identifier, if it is still live.
func (r *Registry) Conn(id domain.ClientID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.conn, true
	}
	return nil, false
}

// Unregister removes the connection. Room-leave cleanup must run first so
// membership never references a vanished identity.
func (r *Registry) Unregister(id domain.ClientID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("unregistered connection")
}

// SetRoom records the connection's room association after a join.
func (r *Registry) SetRoom(id domain.ClientID, room domain.RoomID, mode domain.Mode, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.client.Room = room
	e.client.Mode = mode
	e.client.Role = role
	return true
}

// ClearRoom drops the room association, keeping the connection itself.
func (r *Registry) ClearRoom(id domain.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.client.Room = ""
		e.client.Mode = ""
		e.client.Role = ""
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
