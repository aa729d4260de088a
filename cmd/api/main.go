package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/buyback-service/internal/api/http"
	"github.com/spec-kit/buyback-service/internal/api/http/handlers"
	"github.com/spec-kit/buyback-service/internal/auth"
	"github.com/spec-kit/buyback-service/internal/config"
	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/observability"
	"github.com/spec-kit/buyback-service/internal/persistence"
	"github.com/spec-kit/buyback-service/internal/ratelimit"
	"github.com/spec-kit/buyback-service/internal/repository"
	"github.com/spec-kit/buyback-service/internal/service"
	"github.com/spec-kit/buyback-service/internal/worker"
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

	db := repository.Pool(pg.PoolHandle())
	requestRepo := repository.NewRequestRepository()
	historyRepo := repository.NewHistoryRepository()
	appraisalRepo := repository.NewAppraisalRepository()
	storeRepo := repository.NewStoreRepository()
	staffRepo := repository.NewStaffRepository()
	outboxRepo := repository.NewOutboxRepository()

	metrics := observability.NewMetrics()
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(redis.Client), cfg.RateLimit)

	authService := service.NewAuthService(*cfg, db, staffRepo)
	authMiddleware := auth.NewMiddleware(authService.TokenManager(), staffRepo, db)

	requestService := service.NewRequestService(service.RequestDependencies{
		DB:            db,
		Tx:            pg,
		RequestRepo:   requestRepo,
		HistoryRepo:   historyRepo,
		StoreRepo:     storeRepo,
		StaffRepo:     staffRepo,
		OutboxRepo:    outboxRepo,
		Aggregator:    service.NewAppraisalAggregator(appraisalRepo),
		AppraisalRepo: appraisalRepo,
		Policy:        domain.PolicyFromName(cfg.Workflow.TransitionPolicy),
		Logger:        logger,
	})

	notifications := service.NewNotificationService(logger, cfg.Notification)
	outboxWorker := worker.NewOutboxWorker(db, outboxRepo, notifications,
		time.Duration(cfg.Workflow.OutboxPollSeconds)*time.Second, logger)
	go outboxWorker.Run(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.IsProduction())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewRequestsHandler(requestService, limiter, metrics, cfg.App.TrackingBaseURL),
		StaffRequests:  handlers.NewStaffRequestsHandler(requestService),
		Staff:          handlers.NewStaffHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
