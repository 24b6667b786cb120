package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/infrastructure/metrics"
	"licitahub/services/support-chat/internal/utils/idgen"
)

// botSenderID attributes automated replies and lifecycle notices.
const botSenderID = "bot"

// botSenderName is the display name for system-role messages.
const botSenderName = "Assistente Virtual"

// Service defines the orchestration operations over support sessions.
type Service interface {
	// Open creates a session in the waiting state, emits the welcome
	// message and, when an opening message is supplied, runs it through
	// the pipeline (which consults the bot).
	Open(ctx context.Context, userID, subject, department string, priority Priority, opening string) (*Session, error)

	// Submit runs one message through the pipeline: validate, persist,
	// fan out, and consult the bot / queue when no agent is attached.
	Submit(ctx context.Context, sessionID, senderID string, role Role, body string, mtype MessageType) (*Message, error)

	// AttachAgent transitions waiting→active. Only legal from waiting.
	AttachAgent(ctx context.Context, sessionID, agentID string) (*Session, error)

	// Assign is AttachAgent driven by the routing tick; it additionally
	// notifies the user of the wait they experienced.
	Assign(ctx context.Context, sessionID, agentID string, waited time.Duration) error

	// PushQueueUpdate sends a queue-position update to the session's user.
	PushQueueUpdate(sessionID string, position, waitSeconds, estimateSeconds int)

	// Close terminates the session. Legal from waiting or active;
	// closing an already-closed session is a no-op.
	Close(ctx context.Context, sessionID, closedBy string, rating *int) error

	// Join adds or re-activates a participant without changing state.
	Join(ctx context.Context, sessionID, userID string, role Role) (*Session, error)

	// Leave marks a participant offline without closing the session.
	Leave(ctx context.Context, sessionID, userID string) error

	// Disconnected sweeps every live session the user participates in
	// and marks them offline, notifying the other participants. Called
	// by the connection layer when a user's last connection drops.
	Disconnected(ctx context.Context, userID string)

	// NotifyTyping relays a typing indicator to the other participants.
	// Indicators are transient and never persisted.
	NotifyTyping(ctx context.Context, sessionID, userID string, typing bool) error

	// History returns the ordered message sequence, falling back to the
	// repository for sessions no longer live.
	History(ctx context.Context, sessionID string) ([]*Message, error)

	// SessionsFor lists the live sessions a user owns, as detached
	// snapshots safe to marshal outside the session locks.
	SessionsFor(ctx context.Context, userID string) ([]*Session, error)

	// Rehydrate reloads open sessions from the repository at startup.
	Rehydrate(ctx context.Context) error
}

type service struct {
	store     Store
	repo      Repository
	identity  IdentityResolver
	bot       BotResponder
	router    Router
	agents    *agent.Registry
	broadcast Broadcaster
	now       Clock
	log       zerolog.Logger
}

// NewService creates the chat orchestration service.
func NewService(
	store Store,
	repo Repository,
	identity IdentityResolver,
	bot BotResponder,
	router Router,
	agents *agent.Registry,
	broadcast Broadcaster,
	log zerolog.Logger,
) Service {
	return &service{
		store:     store,
		repo:      repo,
		identity:  identity,
		bot:       bot,
		router:    router,
		agents:    agents,
		broadcast: broadcast,
		now:       time.Now,
		log:       log.With().Str("component", "chat-service").Logger(),
	}
}

func (s *service) Open(ctx context.Context, userID, subject, department string, priority Priority, opening string) (*Session, error) {
	ident, err := s.identity.ResolveUser(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("cannot resolve user")
		return nil, ErrUnknownUser
	}

	id, err := idgen.GenerateSecureID("chat", 24)
	if err != nil {
		return nil, err
	}

	if !priority.Valid() {
		priority = PriorityMedium
	}

	now := s.now()
	sess := &Session{
		ID:           id,
		UserID:       ident.ID,
		UserName:     ident.Name,
		UserEmail:    ident.Email,
		Status:       StatusWaiting,
		Priority:     priority,
		Subject:      subject,
		Department:   department,
		CreatedAt:    now,
		LastActivity: now,
		Participants: []*Participant{{
			SessionID: id,
			UserID:    ident.ID,
			Role:      RoleUser,
			Online:    true,
			JoinedAt:  now,
		}},
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	metrics.RecordSessionOpened()

	if err := s.repo.SaveSession(ctx, sess); err != nil {
		metrics.PersistenceFailures.WithLabelValues("session").Inc()
		s.log.Error().Err(err).Str("chat_id", id).Msg("session persist failed")
	}
	if err := s.repo.SaveParticipant(ctx, sess.Participants[0]); err != nil {
		metrics.PersistenceFailures.WithLabelValues("participant").Inc()
		s.log.Error().Err(err).Str("chat_id", id).Msg("participant persist failed")
	}

	s.log.Info().
		Str("chat_id", id).
		Str("user_id", ident.ID).
		Str("priority", string(priority)).
		Str("department", department).
		Msg("session opened")

	sess.Lock()
	s.broadcast.SendToUser(ident.ID, EventChatStarted, sess.Snapshot())
	welcome := "Olá, " + ident.Name + "! Bem-vindo ao suporte. Descreva sua dúvida que eu tento ajudar."
	if _, err := s.submitLocked(ctx, sess, botSenderID, RoleSystem, welcome, MessageSystem); err != nil {
		s.log.Error().Err(err).Str("chat_id", id).Msg("welcome message failed")
	}
	if opening != "" {
		if _, err := s.submitLocked(ctx, sess, ident.ID, RoleUser, opening, MessageText); err != nil {
			s.log.Error().Err(err).Str("chat_id", id).Msg("opening message failed")
		}
	}
	sess.Unlock()

	return sess, nil
}

func (s *service) AttachAgent(ctx context.Context, sessionID, agentID string) (*Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}
	if sess.Status != StatusWaiting || sess.AgentID != "" {
		return nil, ErrAgentAttached
	}

	a, ok := s.agents.Get(agentID)
	if !ok {
		return nil, ErrUnknownAgent
	}

	now := s.now()
	sess.AgentID = a.ID
	sess.AgentName = a.Name
	sess.Status = StatusActive
	sess.LastActivity = now
	sess.Participants = append(sess.Participants, &Participant{
		SessionID: sess.ID,
		UserID:    a.ID,
		Role:      RoleAgent,
		Online:    true,
		JoinedAt:  now,
	})

	s.agents.MarkBusy(a.ID)
	s.router.Remove(sess.ID)
	metrics.RecordStateTransition(string(StatusWaiting), string(StatusActive))

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		metrics.PersistenceFailures.WithLabelValues("session").Inc()
		s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("session persist failed")
	}
	if err := s.repo.SaveParticipant(ctx, sess.Participants[len(sess.Participants)-1]); err != nil {
		metrics.PersistenceFailures.WithLabelValues("participant").Inc()
		s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("participant persist failed")
	}

	s.log.Info().
		Str("chat_id", sess.ID).
		Str("agent_id", a.ID).
		Msg("agent attached")

	joined := "O atendente " + a.Name + " entrou na conversa."
	if _, err := s.submitLocked(ctx, sess, botSenderID, RoleSystem, joined, MessageSystem); err != nil {
		s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("agent-joined message failed")
	}

	notice := AgentJoinedNotice{ChatID: sess.ID, AgentID: a.ID, AgentName: a.Name}
	for _, uid := range sess.ParticipantIDs() {
		s.broadcast.SendToUser(uid, EventAgentJoined, notice)
	}

	return sess, nil
}

func (s *service) Assign(ctx context.Context, sessionID, agentID string, waited time.Duration) error {
	sess, err := s.AttachAgent(ctx, sessionID, agentID)
	if err != nil {
		return err
	}

	a, _ := s.agents.Get(agentID)
	s.broadcast.SendToUser(sess.UserID, EventAgentAssigned, AssignmentNotice{
		ChatID:        sess.ID,
		AgentID:       agentID,
		AgentName:     a.Name,
		WaitedSeconds: int(waited / time.Second),
	})
	return nil
}

func (s *service) PushQueueUpdate(sessionID string, position, waitSeconds, estimateSeconds int) {
	sess, err := s.store.Get(context.Background(), sessionID)
	if err != nil {
		// Session vanished mid-wait (closed); make sure the queue agrees.
		s.router.Remove(sessionID)
		return
	}
	s.broadcast.SendToUser(sess.UserID, EventQueueUpdate, QueueNotice{
		ChatID:               sessionID,
		Position:             position,
		WaitSeconds:          waitSeconds,
		EstimatedWaitSeconds: estimateSeconds,
	})
}

func (s *service) Close(ctx context.Context, sessionID, closedBy string, rating *int) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Status == StatusClosed {
		return nil
	}

	from := sess.Status
	now := s.now()
	sess.Status = StatusClosed
	sess.ClosedAt = &now
	sess.ClosedBy = closedBy
	if rating != nil && *rating >= 1 && *rating <= 5 {
		sess.Rating = rating
	}
	for _, p := range sess.Participants {
		if p.Online {
			p.Online = false
			left := now
			p.LeftAt = &left
		}
	}

	s.router.Remove(sess.ID)
	if sess.AgentID != "" {
		s.agents.Release(sess.AgentID)
	}
	metrics.RecordStateTransition(string(from), string(StatusClosed))
	metrics.RecordSessionClosed()

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		metrics.PersistenceFailures.WithLabelValues("session").Inc()
		s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("session persist failed")
	}

	notice := ClosureNotice{ChatID: sess.ID, ClosedBy: closedBy, ClosedAt: now}
	for _, uid := range sess.ParticipantIDs() {
		s.broadcast.SendToUser(uid, EventChatClosed, notice)
	}

	s.log.Info().
		Str("chat_id", sess.ID).
		Str("closed_by", closedBy).
		Str("from_state", string(from)).
		Msg("session closed")

	return s.store.Delete(ctx, sess.ID)
}

func (s *service) Join(ctx context.Context, sessionID, userID string, role Role) (*Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}

	now := s.now()
	p := sess.Participant(userID)
	if p == nil {
		p = &Participant{
			SessionID: sess.ID,
			UserID:    userID,
			Role:      role,
			JoinedAt:  now,
		}
		sess.Participants = append(sess.Participants, p)
	}
	p.Online = true
	p.LeftAt = nil

	if err := s.repo.SaveParticipant(ctx, p); err != nil {
		metrics.PersistenceFailures.WithLabelValues("participant").Inc()
		s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("participant persist failed")
	}

	s.notifyStatusLocked(sess, userID, true)
	return sess, nil
}

func (s *service) Leave(ctx context.Context, sessionID, userID string) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	p := sess.Participant(userID)
	if p == nil {
		return ErrUnknownUser
	}
	if p.Online {
		p.Online = false
		left := s.now()
		p.LeftAt = &left
		if err := s.repo.SaveParticipant(ctx, p); err != nil {
			metrics.PersistenceFailures.WithLabelValues("participant").Inc()
			s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("participant persist failed")
		}
		s.notifyStatusLocked(sess, userID, false)
	}
	return nil
}

func (s *service) NotifyTyping(ctx context.Context, sessionID, userID string, typing bool) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	payload := TypingNotice{ChatID: sess.ID, UserID: userID, Typing: typing}
	for _, uid := range sess.ParticipantIDs() {
		if uid == userID {
			continue
		}
		s.broadcast.SendToUser(uid, EventTyping, payload)
	}
	return nil
}

func (s *service) History(ctx context.Context, sessionID string) ([]*Message, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err == nil {
		sess.Lock()
		defer sess.Unlock()
		out := make([]*Message, len(sess.Messages))
		copy(out, sess.Messages)
		return out, nil
	}
	return s.repo.SessionMessages(ctx, sessionID)
}

func (s *service) SessionsFor(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Live sessions keep mutating under message traffic; hand out
	// snapshots so callers can marshal without the session lock.
	out := make([]*Session, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		out = append(out, sess.Snapshot())
		sess.Unlock()
	}
	return out, nil
}

func (s *service) Disconnected(ctx context.Context, userID string) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("disconnect sweep failed")
		return
	}
	for _, sess := range sessions {
		sess.Lock()
		known := sess.Participant(userID) != nil
		sess.Unlock()
		if !known {
			continue
		}
		if err := s.Leave(ctx, sess.ID, userID); err != nil {
			s.log.Error().Err(err).
				Str("chat_id", sess.ID).
				Str("user_id", userID).
				Msg("disconnect leave failed")
		}
	}
}

func (s *service) Rehydrate(ctx context.Context) error {
	sessions, err := s.repo.OpenSessions(ctx)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		// Connections did not survive the restart.
		for _, p := range sess.Participants {
			p.Online = false
		}
		if err := s.store.Put(ctx, sess); err != nil {
			s.log.Error().Err(err).Str("chat_id", sess.ID).Msg("rehydrate failed")
			continue
		}
		metrics.ActiveSessions.Inc()
		if sess.Status == StatusWaiting {
			s.router.Enqueue(sess.ID, sess.Department, sess.Priority.Rank())
		}
	}
	if len(sessions) > 0 {
		s.log.Info().Int("sessions", len(sessions)).Msg("rehydrated open sessions")
	}
	return nil
}

// notifyStatusLocked tells the other participants that someone went
// online or offline; callers hold the session lock.
func (s *service) notifyStatusLocked(sess *Session, userID string, online bool) {
	notice := StatusNotice{ChatID: sess.ID, UserID: userID, Online: online}
	for _, uid := range sess.ParticipantIDs() {
		if uid == userID {
			continue
		}
		s.broadcast.SendToUser(uid, EventUserStatus, notice)
	}
}
