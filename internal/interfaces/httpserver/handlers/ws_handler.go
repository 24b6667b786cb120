package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/interfaces/ws"
	"licitahub/services/support-chat/internal/utils/idgen"
	"licitahub/services/support-chat/internal/utils/platformerrors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin enforcement happens at the edge proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades HTTP requests into chat websocket connections.
type WSHandler struct {
	hub     *ws.Hub
	gateway *ws.Gateway
	agents  *agent.Registry
	log     zerolog.Logger
}

// NewWSHandler creates the websocket upgrade handler.
func NewWSHandler(hub *ws.Hub, gateway *ws.Gateway, agents *agent.Registry, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		gateway: gateway,
		agents:  agents,
		log:     log.With().Str("component", "ws_handler").Logger(),
	}
}

// Serve handles GET /v1/ws. The caller identifies itself through query
// parameters; agents additionally register in the availability pool.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		platformerrors.WriteValidationError(c, "user_id is required")
		return
	}

	role := c.Query("role")
	if role != string(chat.RoleAgent) {
		role = string(chat.RoleUser)
	}

	connID, err := idgen.GenerateSecureID("conn", 16)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		h.log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	if role == string(chat.RoleAgent) {
		h.agents.Ensure(userID, c.Query("name"), c.Query("department"))
	}

	client := ws.NewClient(connID, userID, role, h.hub, conn, h.gateway, h.log)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
