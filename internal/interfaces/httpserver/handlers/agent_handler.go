package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/queue"
	"licitahub/services/support-chat/internal/utils/platformerrors"
)

// AgentHandler serves agent roster and availability endpoints.
type AgentHandler struct {
	agents *agent.Registry
	queue  *queue.Queue
	log    zerolog.Logger
}

// NewAgentHandler creates the agent handler.
func NewAgentHandler(agents *agent.Registry, q *queue.Queue, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		agents: agents,
		queue:  q,
		log:    log.With().Str("component", "agent_handler").Logger(),
	}
}

// List handles GET /v1/agents.
func (h *AgentHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": h.agents.Snapshot()})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PUT /v1/agents/:id/status.
func (h *AgentHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "status is required")
		return
	}

	status := agent.Status(req.Status)
	if !status.Valid() {
		platformerrors.WriteValidationError(c, "status must be online, away or busy")
		return
	}

	if err := h.agents.SetStatus(c.Param("id"), status); err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			platformerrors.WriteNotFound(c, "agent not found")
			return
		}
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

// Queue handles GET /v1/queue, exposing the current waiting line.
func (h *AgentHandler) Queue(c *gin.Context) {
	entries := h.queue.Sorted()
	c.JSON(http.StatusOK, gin.H{
		"depth":                  len(entries),
		"estimated_wait_seconds": h.queue.Estimate(),
		"entries":                entries,
	})
}
