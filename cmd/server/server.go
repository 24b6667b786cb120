package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/config"
	"licitahub/services/support-chat/internal/domain/agent"
	"licitahub/services/support-chat/internal/domain/analytics"
	"licitahub/services/support-chat/internal/domain/bot"
	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/domain/queue"
	"licitahub/services/support-chat/internal/infrastructure/database"
	"licitahub/services/support-chat/internal/infrastructure/genai"
	"licitahub/services/support-chat/internal/infrastructure/identity"
	"licitahub/services/support-chat/internal/infrastructure/logger"
	"licitahub/services/support-chat/internal/infrastructure/observability"
	"licitahub/services/support-chat/internal/infrastructure/presence"
	chatrepo "licitahub/services/support-chat/internal/infrastructure/repository/chat"
	"licitahub/services/support-chat/internal/infrastructure/store"
	"licitahub/services/support-chat/internal/interfaces/httpserver"
	"licitahub/services/support-chat/internal/interfaces/httpserver/handlers"
	"licitahub/services/support-chat/internal/interfaces/ws"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	dispatcher *queue.Dispatcher
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, dispatcher *queue.Dispatcher, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Start runs the application until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.dispatcher.Start(ctx)

	err := a.httpServer.Run(ctx)

	a.dispatcher.Stop()
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	repo := chatrepo.NewRepository(db)

	identityClient, err := identity.NewClient(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize identity client")
	}

	rules, err := bot.LoadRules(cfg.BotRulesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load bot rules")
	}
	var gen bot.Generator
	if client := genai.NewClient(cfg, log); client != nil {
		gen = client
	}
	responder := bot.NewResponder(rules, gen, rand.New(rand.NewSource(time.Now().UnixNano())), log)

	agents := agent.NewRegistry(log)
	waiting := queue.New(agents.OnlineCount, log)
	sessions := store.NewMemoryStore(log)

	tracker := presence.New(cfg, log)
	hub := ws.NewHub(tracker, log)

	chatService := chat.NewService(sessions, repo, identityClient, responder, waiting, agents, hub, log)
	hub.OnDisconnect(func(userID, role string) {
		chatService.Disconnected(context.Background(), userID)
		if role == string(chat.RoleAgent) {
			agents.MarkAway(userID)
		}
	})
	dispatcher := queue.NewDispatcher(waiting, agents, chatService, cfg.RoutingTick, cfg.QueueUpdateInterval, log)
	aggregator := analytics.NewAggregator(repo, log)

	if err := chatService.Rehydrate(ctx); err != nil {
		log.Error().Err(err).Msg("failed to rehydrate open sessions")
	}

	gateway := ws.NewGateway(chatService, agents, log)
	handlerProvider := handlers.NewProvider(
		handlers.NewWSHandler(hub, gateway, agents, log),
		handlers.NewSessionHandler(chatService, log),
		handlers.NewAgentHandler(agents, waiting, log),
		handlers.NewAnalyticsHandler(aggregator, log),
	)
	httpServer := httpserver.New(cfg, log, handlerProvider)

	app := NewApplication(httpServer, dispatcher, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
