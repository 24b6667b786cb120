// Package genai wraps the text-generation collaborator. Generation is
// best effort: failures, timeouts, and open breaker all mean "no answer"
// to the caller, never a pipeline fault.
package genai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"licitahub/services/support-chat/internal/config"
	"licitahub/services/support-chat/internal/infrastructure/metrics"
)

// systemPrompt frames the assistant for first-line procurement support.
const systemPrompt = "Você é o assistente virtual de uma plataforma de licitações públicas. " +
	"Responda dúvidas de suporte sobre editais, documentos de habilitação, prazos e uso da plataforma, " +
	"em português, de forma curta e cordial. Se não souber responder com segurança, responda com uma string vazia."

// Client calls an OpenAI-compatible completion API behind a circuit
// breaker.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
	log       zerolog.Logger
}

// NewClient builds a generation client, or nil when no API key is
// configured (the bot then always defers unmatched messages).
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Info().Msg("text generation disabled, no API key configured")
		return nil
	}

	apiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		apiCfg.BaseURL = cfg.OpenAIBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "text-generation",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.OpenAIModel,
		maxTokens: cfg.GenerationTokens,
		timeout:   cfg.GenerationTimeout,
		breaker:   breaker,
		log:       log.With().Str("component", "genai-client").Logger(),
	}
}

// Generate asks the model for a support reply to the raw message.
// Empty output means the model declined.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	out, err := c.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.3,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})

	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationErrors.Inc()
		c.log.Warn().Err(err).Msg("generation call failed")
		return "", err
	}

	return out.(string), nil
}
