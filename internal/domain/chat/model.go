package chat

import (
	"sync"
	"time"
)

// Status represents the lifecycle state of a support session.
type Status string

const (
	// StatusWaiting indicates the session has no agent attached yet.
	StatusWaiting Status = "waiting"
	// StatusActive indicates a human agent is attached.
	StatusActive Status = "active"
	// StatusClosed is terminal; closed sessions accept no further messages.
	StatusClosed Status = "closed"
)

// Priority controls routing order for waiting sessions.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank maps a priority to its numeric routing weight. Unknown values
// rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Role identifies the kind of sender behind a message or participant.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Session is one support conversation. The in-memory instance is the
// authoritative copy while the session is open; the repository holds the
// durable write-through.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	AgentName  string    `json:"agent_name,omitempty"`
	Status     Status    `json:"status"`
	Priority   Priority  `json:"priority"`
	Subject    string    `json:"subject,omitempty"`
	Department string    `json:"department,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClosedBy     string     `json:"closed_by,omitempty"`
	Rating       *int       `json:"rating,omitempty"`

	Messages     []*Message     `json:"messages,omitempty"`
	Participants []*Participant `json:"participants,omitempty"`

	mu sync.Mutex
}

// Lock serializes mutations on this session. Every transition and every
// message submission for the session must run under it.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Snapshot returns a deep copy that is safe to read and marshal after
// the lock is released. Callers must hold the session lock. Messages are
// immutable once appended, so the copy shares them.
func (s *Session) Snapshot() *Session {
	cp := &Session{
		ID:           s.ID,
		UserID:       s.UserID,
		UserName:     s.UserName,
		UserEmail:    s.UserEmail,
		AgentID:      s.AgentID,
		AgentName:    s.AgentName,
		Status:       s.Status,
		Priority:     s.Priority,
		Subject:      s.Subject,
		Department:   s.Department,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ClosedBy:     s.ClosedBy,
	}
	if s.ClosedAt != nil {
		closed := *s.ClosedAt
		cp.ClosedAt = &closed
	}
	if s.Rating != nil {
		rating := *s.Rating
		cp.Rating = &rating
	}
	cp.Messages = append([]*Message(nil), s.Messages...)
	cp.Participants = make([]*Participant, len(s.Participants))
	for i, p := range s.Participants {
		pc := *p
		cp.Participants[i] = &pc
	}
	return cp
}

// Participant returns the participant entry for the given user, if any.
func (s *Session) Participant(userID string) *Participant {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// ParticipantIDs returns the user IDs of all participants.
func (s *Session) ParticipantIDs() []string {
	ids := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Message is one immutable utterance owned by exactly one session.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"chat_id"`
	SenderID  string         `json:"sender_id"`
	Sender    string         `json:"sender_name"`
	Role      Role           `json:"sender_role"`
	Type      MessageType    `json:"type"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Participant records a user's membership in a session.
type Participant struct {
	SessionID string     `json:"chat_id"`
	UserID    string     `json:"user_id"`
	Role      Role       `json:"role"`
	Online    bool       `json:"online"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}
