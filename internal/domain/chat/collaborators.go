package chat

import (
	"context"
	"time"
)

// Identity is the resolved external identity of a user.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// IdentityResolver resolves user ids against the identity collaborator.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, id string) (*Identity, error)
}

// Store is the in-memory live-session store. It holds only open sessions;
// closed sessions live exclusively in the repository.
type Store interface {
	Put(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ByUser(ctx context.Context, userID string) ([]*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}

// Repository is the append-only persistence collaborator. Write failures
// are logged and counted but never block in-memory progress.
type Repository interface {
	SaveSession(ctx context.Context, sess *Session) error
	UpdateSession(ctx context.Context, sess *Session) error
	SaveMessage(ctx context.Context, msg *Message) error
	SaveParticipant(ctx context.Context, p *Participant) error
	SessionMessages(ctx context.Context, sessionID string) ([]*Message, error)
	OpenSessions(ctx context.Context) ([]*Session, error)
}

// BotResponder decides whether the automated responder answers a message.
// ok=false means defer to a human.
type BotResponder interface {
	Respond(ctx context.Context, body string) (reply string, ok bool)
}

// Router is the queue the service hands deferred sessions to. Enqueue is
// idempotent: fresh is false when the session was already queued.
type Router interface {
	Enqueue(sessionID, department string, priority int) (position int, fresh bool)
	Remove(sessionID string)
	Estimate() int
}

// Broadcaster fans a server event out to every live connection of a user.
// Delivery is best effort; failures are the broadcaster's to log.
type Broadcaster interface {
	SendToUser(userID, event string, payload any)
}

// Clock abstracts time for tests.
type Clock func() time.Time
