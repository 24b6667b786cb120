//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"licitahub/services/support-chat/internal/config"
	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/analytics"
	"licitahub/services/support-chat/internal/domain/bot"
	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/domain/queue"
	"licitahub/services/support-chat/internal/infrastructure/database"
	"licitahub/services/support-chat/internal/infrastructure/genai"
	"licitahub/services/support-chat/internal/infrastructure/identity"
	"licitahub/services/support-chat/internal/infrastructure/presence"
	chatrepo "licitahub/services/support-chat/internal/infrastructure/repository/chat"
	"licitahub/services/support-chat/internal/infrastructure/store"
	"licitahub/services/support-chat/internal/interfaces/httpserver"
	"licitahub/services/support-chat/internal/interfaces/httpserver/handlers"
	"licitahub/services/support-chat/internal/interfaces/ws"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideDatabase,
	ProvideRepository,
	ProvideIdentityResolver,
	ProvideGenerator,
	ProvidePresenceTracker,
	ProvideSessionStore,

	// Domain providers
	ProvideResponder,
	agent.NewRegistry,
	ProvideQueue,
	ProvideChatService,
	ProvideDispatcher,
	ProvideAggregator,

	// Interface providers
	ws.NewHub,
	ws.NewGateway,
	handlers.HandlerProvider,
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideDatabase provides the GORM connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ProvideRepository provides the chat repository.
func ProvideRepository(db *gorm.DB) chat.Repository {
	return chatrepo.NewRepository(db)
}

// ProvideIdentityResolver provides the identity client.
func ProvideIdentityResolver(cfg *config.Config, log zerolog.Logger) (chat.IdentityResolver, error) {
	client, err := identity.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideGenerator provides the text-generation collaborator, nil when
// generation is disabled.
func ProvideGenerator(cfg *config.Config, log zerolog.Logger) bot.Generator {
	if client := genai.NewClient(cfg, log); client != nil {
		return client
	}
	return nil
}

// ProvidePresenceTracker provides the presence tracker.
func ProvidePresenceTracker(cfg *config.Config, log zerolog.Logger) presence.Tracker {
	return presence.New(cfg, log)
}

// ProvideSessionStore provides the live session store.
func ProvideSessionStore(log zerolog.Logger) chat.Store {
	return store.NewMemoryStore(log)
}

// ProvideResponder provides the automated responder.
func ProvideResponder(cfg *config.Config, gen bot.Generator, log zerolog.Logger) (*bot.Responder, error) {
	rules, err := bot.LoadRules(cfg.BotRulesPath)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return bot.NewResponder(rules, gen, rng, log), nil
}

// ProvideQueue provides the routing queue.
func ProvideQueue(agents *agent.Registry, log zerolog.Logger) *queue.Queue {
	return queue.New(agents.OnlineCount, log)
}

// ProvideChatService provides the chat orchestration service.
func ProvideChatService(
	sessions chat.Store,
	repo chat.Repository,
	resolver chat.IdentityResolver,
	responder *bot.Responder,
	waiting *queue.Queue,
	agents *agent.Registry,
	hub *ws.Hub,
	log zerolog.Logger,
) chat.Service {
	svc := chat.NewService(sessions, repo, resolver, responder, waiting, agents, hub, log)
	hub.OnDisconnect(func(userID, role string) {
		svc.Disconnected(context.Background(), userID)
		if role == string(chat.RoleAgent) {
			agents.MarkAway(userID)
		}
	})
	return svc
}

// ProvideDispatcher provides the routing dispatcher.
func ProvideDispatcher(cfg *config.Config, waiting *queue.Queue, agents *agent.Registry, svc chat.Service, log zerolog.Logger) *queue.Dispatcher {
	return queue.NewDispatcher(waiting, agents, svc, cfg.RoutingTick, cfg.QueueUpdateInterval, log)
}

// ProvideAggregator provides the analytics aggregator.
func ProvideAggregator(repo chat.Repository, log zerolog.Logger) *analytics.Aggregator {
	return analytics.NewAggregator(repo.(analytics.Source), log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
