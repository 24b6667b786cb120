package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/infrastructure/metrics"
	"licitahub/services/support-chat/internal/infrastructure/presence"
)

// Hub tracks live connections and fans events out to them. A user may
// hold several connections at once; SendToUser writes to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	users   map[string]map[string]*Client

	presence     presence.Tracker
	onDisconnect func(userID, role string)
	log          zerolog.Logger
}

func NewHub(tracker presence.Tracker, log zerolog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		users:    make(map[string]map[string]*Client),
		presence: tracker,
		log:      log.With().Str("component", "ws_hub").Logger(),
	}
}

// OnDisconnect installs the handler invoked when a user's last
// connection drops. The orchestrator uses it to flip the user's session
// participants offline and bench disconnected agents. Install during
// wiring, before the hub serves traffic.
func (h *Hub) OnDisconnect(fn func(userID, role string)) {
	h.onDisconnect = fn
}

// Register adds a connection and confirms it to the peer.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ConnID] = c
	conns := h.users[c.UserID]
	if conns == nil {
		conns = make(map[string]*Client)
		h.users[c.UserID] = conns
	}
	conns[c.ConnID] = c
	h.mu.Unlock()

	metrics.ConnectedClients.WithLabelValues(c.Role).Inc()
	h.presence.MarkOnline(context.Background(), c.UserID)

	c.Send(ServerEnvelope{
		Type: chat.EventConnected,
		Data: ConnectedData{ConnectionID: c.ConnID, UserID: c.UserID},
	})
	h.log.Info().Str("conn_id", c.ConnID).Str("user_id", c.UserID).Str("role", c.Role).Msg("client connected")
}

// Unregister drops a connection. Only when the user's last connection is
// gone do they go offline in presence and the disconnect handler runs.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ConnID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ConnID)
	conns := h.users[c.UserID]
	delete(conns, c.ConnID)
	lastConn := len(conns) == 0
	if lastConn {
		delete(h.users, c.UserID)
	}
	h.mu.Unlock()

	c.CloseSend()
	metrics.ConnectedClients.WithLabelValues(c.Role).Dec()
	if lastConn {
		h.presence.MarkOffline(context.Background(), c.UserID)
		if h.onDisconnect != nil {
			h.onDisconnect(c.UserID, c.Role)
		}
	}
	h.log.Info().Str("conn_id", c.ConnID).Str("user_id", c.UserID).Msg("client disconnected")
}

// SendToUser delivers one event to every live connection of a user.
// Delivery is best effort: a connection with a full send buffer drops
// the frame rather than blocking the caller.
func (h *Hub) SendToUser(userID, event string, payload any) {
	raw, err := json.Marshal(ServerEnvelope{Type: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal outbound envelope")
		return
	}

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.SendRaw(raw) {
			metrics.DeliveryFailures.Inc()
			h.log.Warn().Str("conn_id", c.ConnID).Str("event", event).Msg("send buffer full, frame dropped")
		}
	}
}

// Online reports whether the user has at least one live connection on
// this instance.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}
