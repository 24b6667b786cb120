// Package store holds the in-memory live-session store. It is the
// authoritative state for open sessions; the repository is the durable
// write-through behind it.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
)

// MemoryStore is a mutex-based in-memory session store.
// Thread-safe via sync.RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*chat.Session
	userIndex map[string]map[string]struct{} // user ID -> session IDs
	log       zerolog.Logger
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*chat.Session),
		userIndex: make(map[string]map[string]struct{}),
		log:       log.With().Str("component", "session-store").Logger(),
	}
}

// Put stores a new session.
func (s *MemoryStore) Put(ctx context.Context, sess *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return chat.ErrSessionExists
	}

	s.sessions[sess.ID] = sess
	if s.userIndex[sess.UserID] == nil {
		s.userIndex[sess.UserID] = make(map[string]struct{})
	}
	s.userIndex[sess.UserID][sess.ID] = struct{}{}
	return nil
}

// Get retrieves a session by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, chat.ErrSessionNotFound
	}
	return sess, nil
}

// ByUser retrieves all live sessions owned by a user.
func (s *MemoryStore) ByUser(ctx context.Context, userID string) ([]*chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.userIndex[userID]
	result := make([]*chat.Session, 0, len(ids))
	for id := range ids {
		if sess, ok := s.sessions[id]; ok {
			result = append(result, sess)
		}
	}
	return result, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return chat.ErrSessionNotFound
	}

	if ids, ok := s.userIndex[sess.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.userIndex, sess.UserID)
		}
	}
	delete(s.sessions, id)
	return nil
}

// List returns all live sessions.
func (s *MemoryStore) List(ctx context.Context) ([]*chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*chat.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	return result, nil
}
