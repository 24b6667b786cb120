package handlers

import (
	"github.com/google/wire"
)

// Provider holds all HTTP handlers.
type Provider struct {
	WS        *WSHandler
	Session   *SessionHandler
	Agent     *AgentHandler
	Analytics *AnalyticsHandler
}

// NewProvider creates a new handler provider.
func NewProvider(ws *WSHandler, session *SessionHandler, agent *AgentHandler, analytics *AnalyticsHandler) *Provider {
	return &Provider{
		WS:        ws,
		Session:   session,
		Agent:     agent,
		Analytics: analytics,
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewWSHandler,
	NewSessionHandler,
	NewAgentHandler,
	NewAnalyticsHandler,
	NewProvider,
)
