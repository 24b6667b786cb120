package chat

import "time"

// QueueNotice tells a waiting user where they stand in the queue.
type QueueNotice struct {
	ChatID               string `json:"chat_id"`
	Position             int    `json:"position"`
	WaitSeconds          int    `json:"wait_seconds"`
	EstimatedWaitSeconds int    `json:"estimated_wait_seconds"`
}

// AssignmentNotice announces that an agent was matched to a session.
type AssignmentNotice struct {
	ChatID        string `json:"chat_id"`
	AgentID       string `json:"agent_id"`
	AgentName     string `json:"agent_name"`
	WaitedSeconds int    `json:"waited_seconds"`
}

// AgentJoinedNotice announces an agent entering the conversation.
type AgentJoinedNotice struct {
	ChatID    string `json:"chat_id"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// ClosureNotice announces session closure to its participants.
type ClosureNotice struct {
	ChatID   string    `json:"chat_id"`
	ClosedBy string    `json:"closed_by"`
	ClosedAt time.Time `json:"closed_at"`
}

// TypingNotice relays a participant's typing indicator.
type TypingNotice struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}

// StatusNotice announces a participant going online or offline.
type StatusNotice struct {
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// HistoryPayload carries a session's ordered message sequence.
type HistoryPayload struct {
	ChatID   string     `json:"chat_id"`
	Messages []*Message `json:"messages"`
}
