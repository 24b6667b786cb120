// Package presence records which users currently hold a live connection.
// State lives in Redis with a TTL so crashed instances age out.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/config"
)

// Tracker marks users online and offline.
type Tracker interface {
	MarkOnline(ctx context.Context, userID string)
	MarkOffline(ctx context.Context, userID string)
	IsOnline(ctx context.Context, userID string) bool
}

// RedisTracker stores presence flags in Redis.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New builds a presence tracker. With no Redis address configured a
// process-local noop is returned; presence is then invisible to other
// instances but chat routing still works.
func New(cfg *config.Config, log zerolog.Logger) Tracker {
	if cfg.RedisAddr == "" {
		log.Info().Msg("presence tracking disabled, no Redis configured")
		return noopTracker{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RedisTracker{
		client: client,
		ttl:    cfg.PresenceTTL,
		log:    log.With().Str("component", "presence").Logger(),
	}
}

func presenceKey(userID string) string {
	return fmt.Sprintf("support_chat:presence:%s", userID)
}

// MarkOnline flags the user as online.
func (t *RedisTracker) MarkOnline(ctx context.Context, userID string) {
	if err := t.client.Set(ctx, presenceKey(userID), "1", t.ttl).Err(); err != nil {
		t.log.Warn().Err(err).Str("user_id", userID).Msg("presence set failed")
	}
}

// MarkOffline clears the user's online flag.
func (t *RedisTracker) MarkOffline(ctx context.Context, userID string) {
	if err := t.client.Del(ctx, presenceKey(userID)).Err(); err != nil {
		t.log.Warn().Err(err).Str("user_id", userID).Msg("presence delete failed")
	}
}

// IsOnline reports whether the user holds a live connection anywhere.
func (t *RedisTracker) IsOnline(ctx context.Context, userID string) bool {
	n, err := t.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		t.log.Warn().Err(err).Str("user_id", userID).Msg("presence check failed")
		return false
	}
	return n > 0
}

type noopTracker struct{}

func (noopTracker) MarkOnline(context.Context, string)    {}
func (noopTracker) MarkOffline(context.Context, string)   {}
func (noopTracker) IsOnline(context.Context, string) bool { return false }
