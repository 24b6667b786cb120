package ws

import "encoding/json"

// Client-originated envelope types.
const (
	TypeStartChat      = "start_chat"
	TypeSendMessage    = "send_message"
	TypeJoinChat       = "join_chat"
	TypeLeaveChat      = "leave_chat"
	TypeTyping         = "typing"
	TypeGetChatHistory = "get_chat_history"
	TypeCloseChat      = "close_chat"
	TypeSetStatus      = "set_status"
)

// ClientEnvelope is one inbound frame. Type discriminates the payload;
// ChatID addresses an existing session where the operation needs one.
type ClientEnvelope struct {
	Type   string          `json:"type"`
	ChatID string          `json:"chatId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ServerEnvelope is one outbound frame.
type ServerEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// StartChatData opens a new session.
type StartChatData struct {
	Subject    string `json:"subject"`
	Department string `json:"department"`
	Priority   string `json:"priority"`
	Message    string `json:"message"`
}

// SendMessageData submits one message to a session.
type SendMessageData struct {
	Body string `json:"body"`
	Type string `json:"type"`
}

// CloseChatData closes a session, optionally rating it 1-5.
type CloseChatData struct {
	Rating *int `json:"rating,omitempty"`
}

// TypingData relays a typing indicator.
type TypingData struct {
	Typing bool `json:"typing"`
}

// SetStatusData is an agent's explicit availability change.
type SetStatusData struct {
	Status string `json:"status"`
}

// ErrorData is the payload of an error envelope.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

// ConnectedData confirms a registered connection.
type ConnectedData struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
}
