// Package v1 registers the versioned HTTP routes.
package v1

import (
	"github.com/gin-gonic/gin"

	"licitahub/services/support-chat/internal/interfaces/httpserver/handlers"
)

// Routes holds the v1 route configuration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes creates a new v1 routes instance.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{handlers: handlerProvider}
}

// Register registers all v1 routes on the engine.
func (r *Routes) Register(engine *gin.Engine) {
	v1 := engine.Group("/v1")

	v1.GET("/ws", r.handlers.WS.Serve)

	v1.GET("/sessions", r.handlers.Session.List)
	v1.GET("/sessions/:id/messages", r.handlers.Session.Messages)

	v1.GET("/agents", r.handlers.Agent.List)
	v1.PUT("/agents/:id/status", r.handlers.Agent.SetStatus)
	v1.GET("/queue", r.handlers.Agent.Queue)

	v1.GET("/analytics/summary", r.handlers.Analytics.Summary)
}
