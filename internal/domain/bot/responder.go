// Package bot implements the automated first-line responder: ordered
// pattern rules with a generative fallback.
package bot

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/infrastructure/metrics"
)

// Generator is the external text-generation collaborator. Failures and
// empty output both mean "no answer".
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Responder decides whether a message gets an automated reply.
type Responder struct {
	rules []Rule
	gen   Generator

	// rng is guarded by mu; reply choice is randomized on purpose so the
	// bot does not repeat itself, and injectable so tests are stable.
	mu  sync.Mutex
	rng *rand.Rand

	log zerolog.Logger
}

// NewResponder creates a responder over the given rule table. gen may be
// nil, in which case unmatched messages always defer to a human.
func NewResponder(rules []Rule, gen Generator, rng *rand.Rand, log zerolog.Logger) *Responder {
	return &Responder{
		rules: rules,
		gen:   gen,
		rng:   rng,
		log:   log.With().Str("component", "bot-responder").Logger(),
	}
}

// Respond evaluates the rule table against the lower-cased body; the
// first rule with a matching pattern wins and one of its replies is
// chosen at random. With no rule match the generator is consulted.
// ok=false defers the message to a human agent.
func (r *Responder) Respond(ctx context.Context, body string) (string, bool) {
	lowered := strings.ToLower(body)

	for _, rule := range r.rules {
		for _, pattern := range rule.Patterns {
			if !strings.Contains(lowered, pattern) {
				continue
			}
			reply := rule.Replies[r.pick(len(rule.Replies))]
			metrics.BotReplies.WithLabelValues(rule.Category).Inc()
			r.log.Debug().Str("category", rule.Category).Msg("rule matched")
			return reply, true
		}
	}

	if r.gen != nil {
		text, err := r.gen.Generate(ctx, body)
		if err != nil {
			r.log.Warn().Err(err).Msg("generation failed, deferring to human")
		} else if strings.TrimSpace(text) != "" {
			metrics.BotReplies.WithLabelValues("generated").Inc()
			return text, true
		}
	}

	metrics.BotDeferrals.Inc()
	return "", false
}

func (r *Responder) pick(n int) int {
	if n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
