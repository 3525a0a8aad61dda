package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workorder-service/internal/api/http"
	"github.com/spec-kit/workorder-service/internal/api/http/handlers"
	"github.com/spec-kit/workorder-service/internal/auth"
	"github.com/spec-kit/workorder-service/internal/config"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/notify"
	"github.com/spec-kit/workorder-service/internal/observability"
	"github.com/spec-kit/workorder-service/internal/persistence"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/service"
	"github.com/spec-kit/workorder-service/internal/storage"
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

	pool := pg.PoolHandle()
	orderRepo := repository.NewWorkOrderRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	statusEventRepo := repository.NewStatusEventRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)

	dispatcher := events.NewAsyncDispatcher(cfg.Notify.DispatchWorkers, cfg.Notify.DispatchQueueLength, logger)
	defer dispatcher.Close()

	resolver := notify.NewAccountResolver(accountRepo, redis.Client, cfg.Notify.RecipientCacheTTL, logger)
	notifier := notify.NewNotifier(resolver,
		notify.NewSendgridSender(cfg.Notify),
		notify.NewHTTPSMSSender(cfg.Notify),
		cfg.Notify, logger, metrics)
	notifier.RegisterHandlers(dispatcher)

	blobs := storage.NewHTTPBlobClient(cfg.Storage)

	workOrderService := service.NewWorkOrderService(service.WorkOrderDependencies{
		OrderRepo:       orderRepo,
		CommentRepo:     commentRepo,
		StatusEventRepo: statusEventRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	commentService := service.NewCommentService(orderRepo, commentRepo, dispatcher)
	attachmentService := service.NewAttachmentService(orderRepo, attachmentRepo, blobs, cfg.Attachments.MaxSizeBytes, logger)

	authMiddleware := auth.NewMiddleware(auth.NewTokenVerifier(cfg.Auth.JWTSecret), accountRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		WorkOrders:     handlers.NewWorkOrdersHandler(workOrderService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
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

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
