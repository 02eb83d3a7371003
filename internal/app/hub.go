package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codestreamer/backend/internal/core"
	"github.com/codestreamer/backend/internal/domain"
)

// Hub tracks live connections and the broadcast scope each one is
// subscribed to (one scope per active room, keyed by session id).
// Delivery is fire-and-forget: a dead or backpressured connection is
// logged and skipped, never surfaced as an error.
type Hub struct {
	mu      sync.RWMutex
	conns   map[domain.ConnID]core.SignalConnection
	scopes  map[string]map[domain.ConnID]struct{}
	scopeOf map[domain.ConnID]string
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[domain.ConnID]core.SignalConnection),
		scopes:  make(map[string]map[domain.ConnID]struct{}),
		scopeOf: make(map[domain.ConnID]string),
	}
}

func (h *Hub) Register(id domain.ConnID, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
	log.Info().Str("module", "app.hub").Str("conn", string(id)).Msg("connection registered")
}

// Unregister drops the connection and any scope membership it still has.
func (h *Hub) Unregister(id domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if scope, ok := h.scopeOf[id]; ok {
		h.dropFromScopeLocked(id, scope)
	}
	delete(h.conns, id)
	log.Info().Str("module", "app.hub").Str("conn", string(id)).Msg("connection unregistered")
}

func (h *Hub) Subscribe(id domain.ConnID, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.scopeOf[id]; ok && prev != scope {
		h.dropFromScopeLocked(id, prev)
	}
	members, ok := h.scopes[scope]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		h.scopes[scope] = members
	}
	members[id] = struct{}{}
	h.scopeOf[id] = scope
}

func (h *Hub) Unsubscribe(id domain.ConnID, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromScopeLocked(id, scope)
}

func (h *Hub) dropFromScopeLocked(id domain.ConnID, scope string) {
	if members, ok := h.scopes[scope]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.scopes, scope)
		}
	}
	if h.scopeOf[id] == scope {
		delete(h.scopeOf, id)
	}
}

// ScopeOf reports the scope the connection is currently subscribed to.
func (h *Hub) ScopeOf(id domain.ConnID) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	scope, ok := h.scopeOf[id]
	return scope, ok
}

// SendTo delivers one event to one connection.
func (h *Hub) SendTo(id domain.ConnID, v any) {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.send(id, conn, v)
}

// Broadcast delivers one event to every subscriber of the scope.
func (h *Hub) Broadcast(scope string, v any) {
	h.mu.RLock()
	targets := make(map[domain.ConnID]core.SignalConnection, len(h.scopes[scope]))
	for id := range h.scopes[scope] {
		if conn, ok := h.conns[id]; ok {
			targets[id] = conn
		}
	}
	h.mu.RUnlock()

	for id, conn := range targets {
		h.send(id, conn, v)
	}
}

func (h *Hub) send(id domain.ConnID, conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("send marshal")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(id)).Msg("send dropped")
	}
}
