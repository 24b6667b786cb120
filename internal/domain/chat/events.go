package chat

// Server-originated event names carried in websocket envelopes.
const (
	EventConnected     = "connected"
	EventChatStarted   = "chat_started"
	EventNewMessage    = "new_message"
	EventAgentJoined   = "agent_joined"
	EventAddedToQueue  = "added_to_queue"
	EventQueueUpdate   = "queue_update"
	EventAgentAssigned = "agent_assigned"
	EventChatClosed    = "chat_closed"
	EventChatHistory   = "chat_history"
	EventTyping        = "typing"
	EventUserStatus    = "user_status"
	EventError         = "error"
)
