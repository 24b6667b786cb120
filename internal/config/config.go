package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the support-chat service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"support-chat"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"SUPPORT_CHAT_PORT" envDefault:"8187"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Persistence (PostgreSQL)
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Presence (Redis). Empty address disables presence tracking.
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	PresenceTTL   time.Duration `env:"PRESENCE_TTL" envDefault:"24h"`

	// Identity collaborator
	IdentityBaseURL   string        `env:"IDENTITY_BASE_URL" envDefault:"http://localhost:8000"`
	IdentityTimeout   time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"3s"`
	IdentityCacheSize int           `env:"IDENTITY_CACHE_SIZE" envDefault:"1024"`

	// Text-generation collaborator. Empty key disables the generative
	// fallback; unmatched messages then always queue for a human.
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:""`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4-turbo-preview"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"15s"`
	GenerationTokens  int           `env:"GENERATION_MAX_TOKENS" envDefault:"400"`

	// Bot responder
	BotRulesPath string `env:"BOT_RULES_PATH" envDefault:"configs/bot_rules.yaml"`

	// Routing engine
	RoutingTick         time.Duration `env:"ROUTING_TICK" envDefault:"30s"`
	QueueUpdateInterval time.Duration `env:"QUEUE_UPDATE_INTERVAL" envDefault:"5m"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.RoutingTick < time.Second {
		return nil, fmt.Errorf("ROUTING_TICK must be at least 1s")
	}
	if cfg.QueueUpdateInterval < cfg.RoutingTick {
		return nil, fmt.Errorf("QUEUE_UPDATE_INTERVAL must not be shorter than ROUTING_TICK")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
