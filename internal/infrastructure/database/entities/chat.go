// Package entities holds the persisted row shapes for the chat schema.
package entities

import (
	"time"

	"licitahub/services/support-chat/internal/domain/chat"
)

// ChatSession is the persisted session record. Rows are retained after
// closure for analytics.
type ChatSession struct {
	ID         string `gorm:"primaryKey;size:64"`
	UserID     string `gorm:"index;size:64"`
	UserName   string `gorm:"size:255"`
	UserEmail  string `gorm:"size:255"`
	AgentID    string `gorm:"index;size:64"`
	AgentName  string `gorm:"size:255"`
	Status     string `gorm:"index;size:16"`
	Priority   string `gorm:"size:16"`
	Subject    string `gorm:"size:255"`
	Department string `gorm:"size:64"`

	CreatedAt    time.Time `gorm:"index"`
	LastActivity time.Time
	ClosedAt     *time.Time
	ClosedBy     string `gorm:"size:64"`
	Rating       *int

	Messages     []ChatMessage     `gorm:"foreignKey:SessionID"`
	Participants []ChatParticipant `gorm:"foreignKey:SessionID"`
}

// ChatMessage is the persisted message record. Append-only, immutable.
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:64"`
	SessionID  string    `gorm:"index;size:64"`
	SenderID   string    `gorm:"size:64"`
	SenderName string    `gorm:"size:255"`
	SenderRole string    `gorm:"size:16"`
	Type       string    `gorm:"size:16"`
	Body       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

// ChatParticipant is the persisted participant record.
type ChatParticipant struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index:idx_participant,unique;size:64"`
	UserID    string `gorm:"index:idx_participant,unique;size:64"`
	Role      string `gorm:"size:16"`
	Online    bool
	JoinedAt  time.Time
	LeftAt    *time.Time
}

// NewChatSession maps a domain session to its row shape.
func NewChatSession(sess *chat.Session) *ChatSession {
	return &ChatSession{
		ID:           sess.ID,
		UserID:       sess.UserID,
		UserName:     sess.UserName,
		UserEmail:    sess.UserEmail,
		AgentID:      sess.AgentID,
		AgentName:    sess.AgentName,
		Status:       string(sess.Status),
		Priority:     string(sess.Priority),
		Subject:      sess.Subject,
		Department:   sess.Department,
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
		ClosedAt:     sess.ClosedAt,
		ClosedBy:     sess.ClosedBy,
		Rating:       sess.Rating,
	}
}

// NewChatMessage maps a domain message to its row shape.
func NewChatMessage(msg *chat.Message) *ChatMessage {
	return &ChatMessage{
		ID:         msg.ID,
		SessionID:  msg.SessionID,
		SenderID:   msg.SenderID,
		SenderName: msg.Sender,
		SenderRole: string(msg.Role),
		Type:       string(msg.Type),
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
}

// NewChatParticipant maps a domain participant to its row shape.
func NewChatParticipant(p *chat.Participant) *ChatParticipant {
	return &ChatParticipant{
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Role:      string(p.Role),
		Online:    p.Online,
		JoinedAt:  p.JoinedAt,
		LeftAt:    p.LeftAt,
	}
}

// EtoD maps a session row back to the domain.
func (e *ChatSession) EtoD() *chat.Session {
	sess := &chat.Session{
		ID:           e.ID,
		UserID:       e.UserID,
		UserName:     e.UserName,
		UserEmail:    e.UserEmail,
		AgentID:      e.AgentID,
		AgentName:    e.AgentName,
		Status:       chat.Status(e.Status),
		Priority:     chat.Priority(e.Priority),
		Subject:      e.Subject,
		Department:   e.Department,
		CreatedAt:    e.CreatedAt,
		LastActivity: e.LastActivity,
		ClosedAt:     e.ClosedAt,
		ClosedBy:     e.ClosedBy,
		Rating:       e.Rating,
	}
	for i := range e.Messages {
		sess.Messages = append(sess.Messages, e.Messages[i].EtoD())
	}
	for i := range e.Participants {
		sess.Participants = append(sess.Participants, e.Participants[i].EtoD())
	}
	return sess
}

// EtoD maps a message row back to the domain.
func (e *ChatMessage) EtoD() *chat.Message {
	return &chat.Message{
		ID:        e.ID,
		SessionID: e.SessionID,
		SenderID:  e.SenderID,
		Sender:    e.SenderName,
		Role:      chat.Role(e.SenderRole),
		Type:      chat.MessageType(e.Type),
		Body:      e.Body,
		CreatedAt: e.CreatedAt,
	}
}

// EtoD maps a participant row back to the domain.
func (e *ChatParticipant) EtoD() *chat.Participant {
	return &chat.Participant{
		SessionID: e.SessionID,
		UserID:    e.UserID,
		Role:      chat.Role(e.Role),
		Online:    e.Online,
		JoinedAt:  e.JoinedAt,
		LeftAt:    e.LeftAt,
	}
}
