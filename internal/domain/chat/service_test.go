package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/infrastructure/store"
)

type fakeRepo struct {
	mu         sync.Mutex
	saved      []*chat.Message
	SaveMsgErr error
	Open       []*chat.Session
	Messages   []*chat.Message
}

func (r *fakeRepo) SaveSession(ctx context.Context, sess *chat.Session) error   { return nil }
func (r *fakeRepo) UpdateSession(ctx context.Context, sess *chat.Session) error { return nil }
func (r *fakeRepo) SaveParticipant(ctx context.Context, p *chat.Participant) error {
	return nil
}

func (r *fakeRepo) SaveMessage(ctx context.Context, msg *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveMsgErr != nil {
		return r.SaveMsgErr
	}
	r.saved = append(r.saved, msg)
	return nil
}

func (r *fakeRepo) SessionMessages(ctx context.Context, sessionID string) ([]*chat.Message, error) {
	return r.Messages, nil
}

func (r *fakeRepo) OpenSessions(ctx context.Context) ([]*chat.Session, error) {
	return r.Open, nil
}

type fakeIdentity struct {
	ResolveFn func(id string) (*chat.Identity, error)
}

func (f *fakeIdentity) ResolveUser(ctx context.Context, id string) (*chat.Identity, error) {
	if f.ResolveFn != nil {
		return f.ResolveFn(id)
	}
	return &chat.Identity{ID: id, Name: "Maria Silva", Email: "maria@example.com"}, nil
}

type fakeBot struct {
	RespondFn func(body string) (string, bool)
}

func (f *fakeBot) Respond(ctx context.Context, body string) (string, bool) {
	if f.RespondFn != nil {
		return f.RespondFn(body)
	}
	return "", false
}

type fakeRouter struct {
	mu       sync.Mutex
	queued   map[string]bool
	enqueues int
	removes  []string
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{queued: make(map[string]bool)}
}

func (f *fakeRouter) Enqueue(sessionID, department string, priority int) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queued[sessionID] {
		return 1, false
	}
	f.queued[sessionID] = true
	f.enqueues++
	return len(f.queued), true
}

func (f *fakeRouter) Remove(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.queued, sessionID)
	f.removes = append(f.removes, sessionID)
}

func (f *fakeRouter) Estimate() int { return 180 }

func (f *fakeRouter) enqueueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueues
}

type sentEvent struct {
	UserID  string
	Event   string
	Payload any
}

type fakeBroadcast struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeBroadcast) SendToUser(userID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{UserID: userID, Event: event, Payload: payload})
}

func (f *fakeBroadcast) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

type fixture struct {
	svc       chat.Service
	store     *store.MemoryStore
	repo      *fakeRepo
	bot       *fakeBot
	router    *fakeRouter
	agents    *agent.Registry
	broadcast *fakeBroadcast
}

func newFixture() *fixture {
	log := zerolog.Nop()
	f := &fixture{
		store:     store.NewMemoryStore(log),
		repo:      &fakeRepo{},
		bot:       &fakeBot{},
		router:    newFakeRouter(),
		agents:    agent.NewRegistry(log),
		broadcast: &fakeBroadcast{},
	}
	f.svc = chat.NewService(f.store, f.repo, &fakeIdentity{}, f.bot, f.router, f.agents, f.broadcast, log)
	return f
}

func TestOpenCreatesWaitingSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Open(ctx, "user-1", "Dúvida sobre edital", "juridico", chat.Priority("bogus"), "preciso de ajuda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sess.Status != chat.StatusWaiting {
		t.Fatalf("expected waiting status, got %s", sess.Status)
	}
	if sess.Priority != chat.PriorityMedium {
		t.Fatalf("expected invalid priority to default to medium, got %s", sess.Priority)
	}
	if len(sess.Messages) < 2 {
		t.Fatalf("expected welcome and opening messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Role != chat.RoleSystem {
		t.Fatalf("expected welcome message first, got role %s", sess.Messages[0].Role)
	}
	if sess.Messages[1].Body != "preciso de ajuda" {
		t.Fatalf("expected opening message second, got %q", sess.Messages[1].Body)
	}

	// The bot deferred, so the session must be queued exactly once.
	if got := f.router.enqueueCount(); got != 1 {
		t.Fatalf("expected 1 enqueue, got %d", got)
	}
	if f.broadcast.count(chat.EventAddedToQueue) != 1 {
		t.Fatalf("expected added_to_queue event")
	}
	if f.broadcast.count(chat.EventChatStarted) != 1 {
		t.Fatalf("expected chat_started event")
	}
}

func TestOpenUnknownUser(t *testing.T) {
	f := newFixture()
	f.svc = chat.NewService(f.store, f.repo, &fakeIdentity{
		ResolveFn: func(id string) (*chat.Identity, error) { return nil, errors.New("boom") },
	}, f.bot, f.router, f.agents, f.broadcast, zerolog.Nop())

	if _, err := f.svc.Open(context.Background(), "ghost", "", "", chat.PriorityLow, ""); !errors.Is(err, chat.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestAttachAgentTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "juridico")
	f.agents.Ensure("agent-2", "Ana", "juridico")

	sess, err := f.svc.Open(ctx, "user-1", "", "juridico", chat.PriorityHigh, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != chat.StatusActive {
		t.Fatalf("expected active status, got %s", got.Status)
	}
	if got.AgentID != "agent-1" {
		t.Fatalf("expected agent-1 attached, got %s", got.AgentID)
	}
	if a, _ := f.agents.Get("agent-1"); a.Status != agent.StatusBusy {
		t.Fatalf("expected agent busy after attach, got %s", a.Status)
	}

	// A second agent must be refused.
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-2"); !errors.Is(err, chat.ErrAgentAttached) {
		t.Fatalf("expected ErrAgentAttached, got %v", err)
	}
	if a, _ := f.agents.Get("agent-2"); a.Status != agent.StatusOnline {
		t.Fatalf("refused agent must stay online, got %s", a.Status)
	}

	if err := f.svc.Close(ctx, sess.ID, "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-2"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
}

func TestAttachUnknownAgent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityLow, "")
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "nobody"); !errors.Is(err, chat.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestCloseReleasesAgentAndIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "")

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rating := 5
	if err := f.svc.Close(ctx, sess.ID, "user-1", &rating); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sess.Status != chat.StatusClosed {
		t.Fatalf("expected closed status, got %s", sess.Status)
	}
	if sess.Rating == nil || *sess.Rating != 5 {
		t.Fatalf("expected rating 5, got %v", sess.Rating)
	}
	if sess.ClosedBy != "user-1" {
		t.Fatalf("expected closed_by user-1, got %s", sess.ClosedBy)
	}
	if a, _ := f.agents.Get("agent-1"); a.Status != agent.StatusOnline {
		t.Fatalf("expected agent released to online, got %s", a.Status)
	}
	if _, err := f.store.Get(ctx, sess.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session evicted from live store, got %v", err)
	}

	// Closing again is a no-op because the session is gone from the
	// live store.
	if err := f.svc.Close(ctx, sess.ID, "user-1", nil); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestCloseRejectsOutOfRangeRating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	rating := 9
	if err := f.svc.Close(ctx, sess.ID, "user-1", &rating); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Rating != nil {
		t.Fatalf("expected out-of-range rating to be discarded, got %v", *sess.Rating)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")

	if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, "   ", chat.MessageText); !errors.Is(err, chat.ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, "missing", "user-1", chat.RoleUser, "oi", chat.MessageText); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := f.svc.Close(ctx, sess.ID, "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, "oi", chat.MessageText); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
}

func TestBotReplyAnswersInline(t *testing.T) {
	f := newFixture()
	f.bot.RespondFn = func(body string) (string, bool) { return "Nossos prazos são de 5 dias úteis.", true }
	ctx := context.Background()

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, "quais os prazos?", chat.MessageText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := sess.Messages[len(sess.Messages)-1]
	if last.Role != chat.RoleSystem {
		t.Fatalf("expected bot reply last, got role %s", last.Role)
	}
	if last.Body != "Nossos prazos são de 5 dias úteis." {
		t.Fatalf("unexpected bot reply %q", last.Body)
	}
	if got := f.router.enqueueCount(); got != 0 {
		t.Fatalf("answered message must not queue, got %d enqueues", got)
	}
}

func TestRepeatedDeferralQueuesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, fmt.Sprintf("mensagem %d", i), chat.MessageText); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := f.router.enqueueCount(); got != 1 {
		t.Fatalf("expected exactly 1 enqueue, got %d", got)
	}
	if got := f.broadcast.count(chat.EventAddedToQueue); got != 1 {
		t.Fatalf("expected exactly 1 added_to_queue event, got %d", got)
	}
}

func TestAgentMessageSkipsBot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "")

	botCalls := 0
	f.bot.RespondFn = func(body string) (string, bool) {
		botCalls++
		return "", false
	}

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	botCalls = 0
	if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, "ainda preciso de ajuda", chat.MessageText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Submit(ctx, sess.ID, "agent-1", chat.RoleAgent, "posso ajudar", chat.MessageText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if botCalls != 0 {
		t.Fatalf("bot must not run once an agent is attached, got %d calls", botCalls)
	}
}

func TestConcurrentSubmitsKeepPerSenderOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "")

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := len(sess.Messages)

	const senders = 5
	const perSender = 20

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				body := fmt.Sprintf("sender-%d seq-%d", s, i)
				if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, body, chat.MessageText); err != nil {
					t.Errorf("submit failed: %v", err)
					return
				}
			}
		}(s)
	}
	wg.Wait()

	sess.Lock()
	defer sess.Unlock()

	if got := len(sess.Messages) - base; got != senders*perSender {
		t.Fatalf("expected %d messages, got %d", senders*perSender, got)
	}
	// Each sender's own messages must appear in submission order.
	lastSeq := map[string]int{}
	for _, m := range sess.Messages[base:] {
		var sender, seq int
		if _, err := fmt.Sscanf(m.Body, "sender-%d seq-%d", &sender, &seq); err != nil {
			t.Fatalf("unexpected message body %q", m.Body)
		}
		key := fmt.Sprintf("s%d", sender)
		if prev, ok := lastSeq[key]; ok && seq != prev+1 {
			t.Fatalf("sender %d out of order: %d after %d", sender, seq, prev)
		}
		lastSeq[key] = seq
	}
}

func TestNotifyTypingExcludesSender(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "")

	sess, _ := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.NotifyTyping(ctx, sess.ID, "user-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.broadcast.mu.Lock()
	defer f.broadcast.mu.Unlock()
	for _, e := range f.broadcast.events {
		if e.Event == chat.EventTyping && e.UserID == "user-1" {
			t.Fatalf("typing indicator echoed back to sender")
		}
	}
}

func TestHistoryFallsBackToRepository(t *testing.T) {
	f := newFixture()
	f.repo.Messages = []*chat.Message{{ID: "msg-1", SessionID: "chat-old", Body: "histórico"}}

	msgs, err := f.svc.History(context.Background(), "chat-old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "msg-1" {
		t.Fatalf("expected repository history, got %+v", msgs)
	}
}

func TestRehydrateRequeuesWaitingSessions(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.repo.Open = []*chat.Session{
		{
			ID:        "chat-waiting",
			UserID:    "user-1",
			Status:    chat.StatusWaiting,
			Priority:  chat.PriorityHigh,
			CreatedAt: now,
			Participants: []*chat.Participant{
				{SessionID: "chat-waiting", UserID: "user-1", Role: chat.RoleUser, Online: true},
			},
		},
		{
			ID:        "chat-active",
			UserID:    "user-2",
			AgentID:   "agent-1",
			Status:    chat.StatusActive,
			Priority:  chat.PriorityLow,
			CreatedAt: now,
		},
	}

	if err := f.svc.Rehydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.store.Get(context.Background(), "chat-waiting"); err != nil {
		t.Fatalf("expected rehydrated session in store: %v", err)
	}
	if !f.router.queued["chat-waiting"] {
		t.Fatalf("expected waiting session requeued")
	}
	if f.router.queued["chat-active"] {
		t.Fatalf("active session must not be queued")
	}

	sess, _ := f.store.Get(context.Background(), "chat-waiting")
	for _, p := range sess.Participants {
		if p.Online {
			t.Fatalf("participants must come back offline after restart")
		}
	}
}

func TestSessionsForReturnsDetachedSnapshots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "olá")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listed, err := f.svc.SessionsFor(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 session, got %d", len(listed))
	}
	snap := listed[0]
	if snap == sess {
		t.Fatalf("expected a detached copy, got the live session")
	}
	if snap.Participants[0] == sess.Participants[0] {
		t.Fatalf("participants shared with the live session")
	}
	before := len(snap.Messages)

	if _, err := f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, "mais uma mensagem", chat.MessageText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snap.Messages) != before {
		t.Fatalf("snapshot grew with live traffic: %d -> %d", before, len(snap.Messages))
	}
}

func TestSessionsForMarshalsSafelyUnderTraffic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			f.svc.Submit(ctx, sess.ID, "user-1", chat.RoleUser, fmt.Sprintf("mensagem %d", i), chat.MessageText)
		}
	}()

	for i := 0; i < 200; i++ {
		listed, err := f.svc.SessionsFor(ctx, "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := json.Marshal(listed); err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
	}
	close(done)
	wg.Wait()
}

func TestDisconnectedMarksParticipantsOffline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.agents.Ensure("agent-1", "João", "")

	sess, err := f.svc.Open(ctx, "user-1", "", "", chat.PriorityMedium, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.AttachAgent(ctx, sess.ID, "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.svc.Disconnected(ctx, "agent-1")

	sess.Lock()
	p := sess.Participant("agent-1")
	online := p != nil && p.Online
	sess.Unlock()
	if online {
		t.Fatalf("expected disconnected agent offline in the session")
	}
	if f.broadcast.count(chat.EventUserStatus) == 0 {
		t.Fatalf("expected user_status notice for the other participants")
	}

	// Sweeping a user no session knows is a no-op.
	f.svc.Disconnected(ctx, "stranger")
}
