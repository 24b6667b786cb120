package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/chat"
)

// Gateway translates inbound envelopes into service calls and service
// errors back into error envelopes. It is stateless; all session state
// lives in the chat service.
type Gateway struct {
	svc    chat.Service
	agents *agent.Registry
	log    zerolog.Logger
}

func NewGateway(svc chat.Service, agents *agent.Registry, log zerolog.Logger) *Gateway {
	return &Gateway{
		svc:    svc,
		agents: agents,
		log:    log.With().Str("component", "ws_gateway").Logger(),
	}
}

// Dispatch routes one client envelope. Unknown types and malformed
// payloads answer with an error envelope instead of dropping the
// connection.
func (g *Gateway) Dispatch(c *Client, env ClientEnvelope) {
	ctx := context.Background()

	var err error
	switch env.Type {
	case TypeStartChat:
		err = g.startChat(ctx, c, env)
	case TypeSendMessage:
		err = g.sendMessage(ctx, c, env)
	case TypeJoinChat:
		err = g.joinChat(ctx, c, env)
	case TypeLeaveChat:
		err = g.svc.Leave(ctx, env.ChatID, c.UserID)
	case TypeTyping:
		err = g.typing(ctx, c, env)
	case TypeGetChatHistory:
		err = g.history(ctx, c, env)
	case TypeCloseChat:
		err = g.closeChat(ctx, c, env)
	case TypeSetStatus:
		err = g.setStatus(c, env)
	default:
		c.Send(errorEnvelope("unknown_type", "unsupported envelope type: "+env.Type, env.ChatID))
		return
	}

	if err != nil {
		g.log.Debug().Err(err).Str("type", env.Type).Str("chat_id", env.ChatID).Str("user_id", c.UserID).Msg("envelope rejected")
		c.Send(errorEnvelopeFor(err, env.ChatID))
	}
}

func (g *Gateway) startChat(ctx context.Context, c *Client, env ClientEnvelope) error {
	var data StartChatData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errMalformed
	}
	_, err := g.svc.Open(ctx, c.UserID, data.Subject, data.Department, chat.Priority(data.Priority), data.Message)
	return err
}

func (g *Gateway) sendMessage(ctx context.Context, c *Client, env ClientEnvelope) error {
	var data SendMessageData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errMalformed
	}
	mtype := chat.MessageType(data.Type)
	switch mtype {
	case chat.MessageText, chat.MessageImage, chat.MessageFile:
	default:
		mtype = chat.MessageText
	}
	role := chat.RoleUser
	if c.Role == string(chat.RoleAgent) {
		role = chat.RoleAgent
	}
	_, err := g.svc.Submit(ctx, env.ChatID, c.UserID, role, data.Body, mtype)
	return err
}

// joinChat attaches an agent to a waiting session, or adds the caller as
// a plain participant when the session is already staffed or the caller
// is not an agent.
func (g *Gateway) joinChat(ctx context.Context, c *Client, env ClientEnvelope) error {
	if c.Role == string(chat.RoleAgent) {
		_, err := g.svc.AttachAgent(ctx, env.ChatID, c.UserID)
		if err == nil {
			return g.history(ctx, c, env)
		}
		if !errors.Is(err, chat.ErrAgentAttached) {
			return err
		}
		// Already staffed; join as an observer instead.
	}

	role := chat.RoleUser
	if c.Role == string(chat.RoleAgent) {
		role = chat.RoleAgent
	}
	if _, err := g.svc.Join(ctx, env.ChatID, c.UserID, role); err != nil {
		return err
	}
	return g.history(ctx, c, env)
}

func (g *Gateway) typing(ctx context.Context, c *Client, env ClientEnvelope) error {
	var data TypingData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errMalformed
	}
	return g.svc.NotifyTyping(ctx, env.ChatID, c.UserID, data.Typing)
}

func (g *Gateway) history(ctx context.Context, c *Client, env ClientEnvelope) error {
	msgs, err := g.svc.History(ctx, env.ChatID)
	if err != nil {
		return err
	}
	c.Send(ServerEnvelope{
		Type: chat.EventChatHistory,
		Data: chat.HistoryPayload{ChatID: env.ChatID, Messages: msgs},
	})
	return nil
}

func (g *Gateway) closeChat(ctx context.Context, c *Client, env ClientEnvelope) error {
	var data CloseChatData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return errMalformed
		}
	}
	return g.svc.Close(ctx, env.ChatID, c.UserID, data.Rating)
}

func (g *Gateway) setStatus(c *Client, env ClientEnvelope) error {
	if c.Role != string(chat.RoleAgent) {
		return errForbidden
	}
	var data SetStatusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errMalformed
	}
	status := agent.Status(data.Status)
	if !status.Valid() {
		return errMalformed
	}
	return g.agents.SetStatus(c.UserID, status)
}

var (
	errMalformed = errors.New("malformed payload")
	errForbidden = errors.New("operation not allowed for this role")
)

// errorEnvelopeFor maps domain errors to the stable wire codes clients
// branch on.
func errorEnvelopeFor(err error, chatID string) ServerEnvelope {
	code := "internal_error"
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		code = "session_not_found"
	case errors.Is(err, chat.ErrSessionClosed):
		code = "session_closed"
	case errors.Is(err, chat.ErrAgentAttached):
		code = "agent_already_attached"
	case errors.Is(err, chat.ErrUnknownUser):
		code = "unknown_user"
	case errors.Is(err, chat.ErrUnknownAgent), errors.Is(err, agent.ErrAgentNotFound):
		code = "unknown_agent"
	case errors.Is(err, chat.ErrEmptyBody), errors.Is(err, errMalformed):
		code = "invalid_payload"
	case errors.Is(err, errForbidden):
		code = "forbidden"
	}
	return errorEnvelope(code, err.Error(), chatID)
}

func errorEnvelope(code, message, chatID string) ServerEnvelope {
	return ServerEnvelope{
		Type: chat.EventError,
		Data: ErrorData{Code: code, Message: message, ChatID: chatID},
	}
}
