package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/infrastructure/store"
)

func TestPutAndGet(t *testing.T) {
	s := store.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	sess := &chat.Session{ID: "chat-1", UserID: "user-1", Status: chat.StatusWaiting}
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "chat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sess {
		t.Fatalf("expected the stored pointer back")
	}

	if err := s.Put(ctx, &chat.Session{ID: "chat-1"}); !errors.Is(err, chat.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestByUser(t *testing.T) {
	s := store.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	s.Put(ctx, &chat.Session{ID: "chat-1", UserID: "user-1"})
	s.Put(ctx, &chat.Session{ID: "chat-2", UserID: "user-1"})
	s.Put(ctx, &chat.Session{ID: "chat-3", UserID: "user-2"})

	sessions, err := s.ByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	sessions, _ = s.ByUser(ctx, "nobody")
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}

func TestDelete(t *testing.T) {
	s := store.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	s.Put(ctx, &chat.Session{ID: "chat-1", UserID: "user-1"})
	if err := s.Delete(ctx, "chat-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Get(ctx, "chat-1"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	sessions, _ := s.ByUser(ctx, "user-1")
	if len(sessions) != 0 {
		t.Fatalf("expected user index cleaned up, got %d sessions", len(sessions))
	}

	if err := s.Delete(ctx, "chat-1"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := store.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	s.Put(ctx, &chat.Session{ID: "chat-1", UserID: "user-1"})
	s.Put(ctx, &chat.Session{ID: "chat-2", UserID: "user-2"})

	sessions, err := s.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}
