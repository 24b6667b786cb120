// Package analytics derives rollup statistics from persisted chat history.
package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
)

// Source supplies persisted sessions (messages included) for a window.
type Source interface {
	SessionsInRange(ctx context.Context, from, to time.Time) ([]*chat.Session, error)
}

// Summary is the rollup for one time window.
type Summary struct {
	From                 time.Time `json:"from"`
	To                   time.Time `json:"to"`
	TotalSessions        int       `json:"total_sessions"`
	ResolvedSessions     int       `json:"resolved_sessions"`
	ResolutionRate       float64   `json:"resolution_rate"`
	AvgFirstResponseSecs float64   `json:"avg_first_agent_response_seconds"`
	AvgDurationSecs      float64   `json:"avg_session_duration_seconds"`
	BotDeflectionRate    float64   `json:"bot_deflection_rate"`
	AvgRating            *float64  `json:"avg_rating,omitempty"`
}

// Aggregator computes summaries by scanning the persistence collaborator.
type Aggregator struct {
	source Source
	log    zerolog.Logger
}

// NewAggregator creates an aggregator over the given source.
func NewAggregator(source Source, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		log:    log.With().Str("component", "analytics").Logger(),
	}
}

// Summarize scans sessions created inside [from, to] and derives the
// rollup. Deflection counts automated text replies (system role, text
// type) against all conversational messages; lifecycle notices (system
// type) are excluded from both sides.
func (a *Aggregator) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	sessions, err := a.source.SessionsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{From: from, To: to, TotalSessions: len(sessions)}

	var (
		firstRespTotal time.Duration
		firstRespCount int
		durationTotal  time.Duration
		durationCount  int
		botMessages    int
		allMessages    int
		ratingTotal    int
		ratingCount    int
	)

	for _, sess := range sessions {
		if sess.Status == chat.StatusClosed {
			sum.ResolvedSessions++
			if sess.ClosedAt != nil {
				durationTotal += sess.ClosedAt.Sub(sess.CreatedAt)
				durationCount++
			}
		}
		if sess.Rating != nil {
			ratingTotal += *sess.Rating
			ratingCount++
		}

		for _, msg := range sess.Messages {
			if msg.Type == chat.MessageSystem {
				continue
			}
			allMessages++
			if msg.Role == chat.RoleSystem {
				botMessages++
			}
		}

		if first := firstAgentResponse(sess); first != nil {
			firstRespTotal += first.CreatedAt.Sub(sess.CreatedAt)
			firstRespCount++
		}
	}

	if sum.TotalSessions > 0 {
		sum.ResolutionRate = float64(sum.ResolvedSessions) / float64(sum.TotalSessions)
	}
	if firstRespCount > 0 {
		sum.AvgFirstResponseSecs = firstRespTotal.Seconds() / float64(firstRespCount)
	}
	if durationCount > 0 {
		sum.AvgDurationSecs = durationTotal.Seconds() / float64(durationCount)
	}
	if allMessages > 0 {
		sum.BotDeflectionRate = float64(botMessages) / float64(allMessages)
	}
	if ratingCount > 0 {
		avg := float64(ratingTotal) / float64(ratingCount)
		sum.AvgRating = &avg
	}

	return sum, nil
}

// firstAgentResponse returns the earliest agent-role message of a
// session, or nil when no agent ever replied.
func firstAgentResponse(sess *chat.Session) *chat.Message {
	for _, msg := range sess.Messages {
		if msg.Role == chat.RoleAgent {
			return msg
		}
	}
	return nil
}
