package chat

import "errors"

var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when creating a session that already exists.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionClosed is returned on any write against a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrAgentAttached is returned when attaching an agent to a session
	// that is not in the waiting state.
	ErrAgentAttached = errors.New("session already has an agent attached")
	// ErrUnknownUser is returned when the identity collaborator cannot
	// resolve a sender.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnknownAgent is returned when an agent id is not registered.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrEmptyBody is returned for messages with no content.
	ErrEmptyBody = errors.New("message body is empty")
)
