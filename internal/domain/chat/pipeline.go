package chat

import (
	"context"
	"strings"

	"licitahub/services/support-chat/internal/infrastructure/metrics"
	"licitahub/services/support-chat/internal/utils/idgen"
)

func (s *service) Submit(ctx context.Context, sessionID, senderID string, role Role, body string, mtype MessageType) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	return s.submitLocked(ctx, sess, senderID, role, body, mtype)
}

// submitLocked runs the pipeline for one message. Callers hold the
// session lock, which serializes submissions per session: the persisted
// sequence equals submission order even under concurrent senders.
func (s *service) submitLocked(ctx context.Context, sess *Session, senderID string, role Role, body string, mtype MessageType) (*Message, error) {
	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}

	senderName, err := s.senderName(ctx, senderID, role)
	if err != nil {
		return nil, err
	}

	id, err := idgen.GenerateSecureID("msg", 24)
	if err != nil {
		return nil, err
	}
	if mtype == "" {
		mtype = MessageText
	}

	now := s.now()
	msg := &Message{
		ID:        id,
		SessionID: sess.ID,
		SenderID:  senderID,
		Sender:    senderName,
		Role:      role,
		Type:      mtype,
		Body:      body,
		CreatedAt: now,
	}

	// Durability is best effort; conversational liveness wins. Failures
	// are logged and counted, never propagated.
	if err := s.repo.SaveMessage(ctx, msg); err != nil {
		metrics.PersistenceFailures.WithLabelValues("message").Inc()
		s.log.Error().Err(err).Str("chat_id", sess.ID).Str("message_id", id).Msg("message persist failed")
	}

	sess.Messages = append(sess.Messages, msg)
	sess.LastActivity = now
	metrics.MessagesSubmitted.WithLabelValues(string(role)).Inc()

	for _, uid := range sess.ParticipantIDs() {
		s.broadcast.SendToUser(uid, EventNewMessage, msg)
	}

	if role == RoleUser && sess.AgentID == "" {
		s.consultBotLocked(ctx, sess, body)
	}

	return msg, nil
}

// consultBotLocked runs the bot decision for a user message on an
// agentless session: reply as system, or enqueue for a human.
func (s *service) consultBotLocked(ctx context.Context, sess *Session, body string) {
	reply, ok := s.bot.Respond(ctx, body)
	if ok {
		if _, err := s.submitLocked(ctx, sess, botSenderID, RoleSystem, reply, MessageText); err != nil {
			s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("bot reply failed")
		}
		return
	}

	position, fresh := s.router.Enqueue(sess.ID, sess.Department, sess.Priority.Rank())
	if !fresh {
		return
	}
	s.log.Info().Str("chat_id", sess.ID).Int("position", position).Msg("deferred to human")
	s.broadcast.SendToUser(sess.UserID, EventAddedToQueue, QueueNotice{
		ChatID:               sess.ID,
		Position:             position,
		EstimatedWaitSeconds: s.router.Estimate(),
	})
}

// senderName resolves the display name for a message. System messages
// are attributed to the virtual assistant; agents resolve through the
// registry, everyone else through the identity collaborator.
func (s *service) senderName(ctx context.Context, senderID string, role Role) (string, error) {
	switch role {
	case RoleSystem:
		return botSenderName, nil
	case RoleAgent:
		if a, ok := s.agents.Get(senderID); ok {
			return a.Name, nil
		}
	}
	ident, err := s.identity.ResolveUser(ctx, senderID)
	if err != nil {
		return "", ErrUnknownUser
	}
	return ident.Name, nil
}
