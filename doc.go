// Package supportchat implements the live support chat service for the
// procurement platform.
//
// The service provides:
//   - Websocket-based support conversations between users and agents
//   - An automated first-line responder with a generative fallback
//   - Priority-ordered routing of waiting sessions to available agents
//   - Durable chat history in PostgreSQL with in-memory live state
//   - Rollup analytics over closed conversations
//
// For more information, see the README.md file.
package supportchat
