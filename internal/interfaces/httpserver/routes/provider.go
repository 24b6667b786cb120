// Package routes wires handler providers onto the gin engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"licitahub/services/support-chat/internal/interfaces/httpserver/handlers"
	v1 "licitahub/services/support-chat/internal/interfaces/httpserver/routes/v1"
)

// Provider holds all route providers.
type Provider struct {
	V1 *v1.Routes
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{V1: v1.NewRoutes(handlerProvider)}
}

// Register registers all routes on the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.V1.Register(engine)
}
