package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/utils/platformerrors"
)

// SessionHandler serves read-only views over live sessions. All mutation
// happens over the websocket.
type SessionHandler struct {
	svc chat.Service
	log zerolog.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(svc chat.Service, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		svc: svc,
		log: log.With().Str("component", "session_handler").Logger(),
	}
}

// List handles GET /v1/sessions?user_id=...
func (h *SessionHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		platformerrors.WriteValidationError(c, "user_id is required")
		return
	}

	sessions, err := h.svc.SessionsFor(c.Request.Context(), userID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Messages handles GET /v1/sessions/:id/messages. Closed sessions are
// served from durable history.
func (h *SessionHandler) Messages(c *gin.Context) {
	msgs, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, chat.HistoryPayload{ChatID: c.Param("id"), Messages: msgs})
}
