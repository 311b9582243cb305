package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/intake-assistant/internal/api/http"
	"github.com/spec-kit/intake-assistant/internal/api/http/handlers"
	"github.com/spec-kit/intake-assistant/internal/auth"
	"github.com/spec-kit/intake-assistant/internal/completion"
	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/events"
	"github.com/spec-kit/intake-assistant/internal/observability"
	"github.com/spec-kit/intake-assistant/internal/persistence"
	"github.com/spec-kit/intake-assistant/internal/repository"
	"github.com/spec-kit/intake-assistant/internal/search"
	"github.com/spec-kit/intake-assistant/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewDispatcher(logger)
	registerEventSubscribers(dispatcher, logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokens, cfg.Auth, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	completionClient := completion.NewClient(cfg.OpenAI, logger, metrics)
	if !completionClient.Enabled() {
		logger.Warn("completions disabled, running on deterministic fallbacks only")
	}

	engine := search.NewEngine(search.Dependencies{
		Provider:   search.NewHTTPProvider(cfg.Search),
		Articles:   articleRepo,
		Catalog:    catalogRepo,
		Completion: completionClient,
		Logger:     logger,
		Metrics:    metrics,
	})

	statusService := service.NewStatusService(redis, cfg.Status, logger)
	ticketService := service.NewTicketService(ticketRepo, attachmentRepo, completionClient, dispatcher, logger, metrics)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		SearchConfig: cfg.Search,
		Classifier:   service.NewClassificationService(completionClient, logger, metrics),
		Planner:      service.NewPlanner(),
		Engine:       engine,
		Answers:      service.NewAnswerService(completionClient, logger, metrics),
		Questions:    service.NewQuestionService(completionClient, logger, metrics),
		Tickets:      ticketService,
		Status:       statusService,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Intake:         handlers.NewIntakeHandler(orchestrator),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func registerEventSubscribers(dispatcher *events.Dispatcher, logger *zap.Logger) {
	dispatcher.Register(events.EventResponseGenerated, func(ctx context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.ResponseGeneratedPayload); ok {
			logger.Info("assistant response generated",
				zap.String("session_id", payload.SessionID),
				zap.String("classification", string(payload.Classification)),
				zap.String("language", string(payload.Language)))
		}
		return nil
	})
	dispatcher.Register(events.EventTicketCreated, func(ctx context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.TicketCreatedPayload); ok {
			logger.Info("request record created",
				zap.String("number", payload.Record.Number),
				zap.String("table", payload.Record.Table),
				zap.String("kind", string(payload.Record.Kind)))
		}
		return nil
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
