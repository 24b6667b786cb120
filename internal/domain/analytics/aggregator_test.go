package analytics_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/analytics"
	"licitahub/services/support-chat/internal/domain/chat"
)

type fakeSource struct {
	sessions []*chat.Session
	err      error
}

func (f *fakeSource) SessionsInRange(ctx context.Context, from, to time.Time) ([]*chat.Session, error) {
	return f.sessions, f.err
}

func ts(base time.Time, offset time.Duration) time.Time { return base.Add(offset) }

func TestSummarizeEmptyWindow(t *testing.T) {
	agg := analytics.NewAggregator(&fakeSource{}, zerolog.Nop())

	sum, err := agg.Summarize(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalSessions != 0 || sum.ResolutionRate != 0 || sum.AvgRating != nil {
		t.Fatalf("expected zero-valued summary, got %+v", sum)
	}
}

func TestSummarizeSourceError(t *testing.T) {
	agg := analytics.NewAggregator(&fakeSource{err: errors.New("db down")}, zerolog.Nop())
	if _, err := agg.Summarize(context.Background(), time.Time{}, time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSummarizeRollup(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	closedAt := ts(base, 10*time.Minute)
	rating := 4

	resolved := &chat.Session{
		ID:        "chat-1",
		Status:    chat.StatusClosed,
		CreatedAt: base,
		ClosedAt:  &closedAt,
		Rating:    &rating,
		Messages: []*chat.Message{
			// Lifecycle notice, excluded from deflection on both sides.
			{Role: chat.RoleSystem, Type: chat.MessageSystem, CreatedAt: base},
			{Role: chat.RoleUser, Type: chat.MessageText, CreatedAt: ts(base, time.Minute)},
			{Role: chat.RoleSystem, Type: chat.MessageText, CreatedAt: ts(base, time.Minute+5*time.Second)},
			{Role: chat.RoleUser, Type: chat.MessageText, CreatedAt: ts(base, 2*time.Minute)},
			{Role: chat.RoleAgent, Type: chat.MessageText, CreatedAt: ts(base, 3*time.Minute)},
		},
	}
	open := &chat.Session{
		ID:        "chat-2",
		Status:    chat.StatusWaiting,
		CreatedAt: base,
		Messages: []*chat.Message{
			{Role: chat.RoleUser, Type: chat.MessageText, CreatedAt: ts(base, time.Minute)},
			{Role: chat.RoleSystem, Type: chat.MessageText, CreatedAt: ts(base, time.Minute+2*time.Second)},
		},
	}

	agg := analytics.NewAggregator(&fakeSource{sessions: []*chat.Session{resolved, open}}, zerolog.Nop())
	sum, err := agg.Summarize(context.Background(), base, ts(base, time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.TotalSessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", sum.TotalSessions)
	}
	if sum.ResolvedSessions != 1 {
		t.Fatalf("expected 1 resolved, got %d", sum.ResolvedSessions)
	}
	if math.Abs(sum.ResolutionRate-0.5) > 1e-9 {
		t.Fatalf("expected resolution rate 0.5, got %f", sum.ResolutionRate)
	}
	// First agent reply arrived 3 minutes in, on one session.
	if math.Abs(sum.AvgFirstResponseSecs-180) > 1e-9 {
		t.Fatalf("expected avg first response 180s, got %f", sum.AvgFirstResponseSecs)
	}
	if math.Abs(sum.AvgDurationSecs-600) > 1e-9 {
		t.Fatalf("expected avg duration 600s, got %f", sum.AvgDurationSecs)
	}
	// 2 bot replies over 6 conversational messages.
	if math.Abs(sum.BotDeflectionRate-2.0/6.0) > 1e-9 {
		t.Fatalf("expected deflection 1/3, got %f", sum.BotDeflectionRate)
	}
	if sum.AvgRating == nil || math.Abs(*sum.AvgRating-4) > 1e-9 {
		t.Fatalf("expected avg rating 4, got %v", sum.AvgRating)
	}
}
