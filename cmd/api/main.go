package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/config"
	"github.com/spec-kit/event-service/internal/events"
	"github.com/spec-kit/event-service/internal/observability"
	"github.com/spec-kit/event-service/internal/persistence"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/service"
	"github.com/spec-kit/event-service/internal/upload"
	"github.com/spec-kit/event-service/internal/worker"

	apphttp "github.com/spec-kit/event-service/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(postgres.Pool)
	verificationRepo := repository.NewVerificationRepository(postgres.Pool)
	eventRepo := repository.NewEventRepository(postgres.Pool)
	registrationRepo := repository.NewRegistrationRepository(postgres.Pool)
	auditRepo := repository.NewAuditRepository(postgres.Pool)

	uploadStore := upload.NewLocalStore(cfg.Upload.Dir)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		UserRepo:         userRepo,
		VerificationRepo: verificationRepo,
		AuditRepo:        auditRepo,
		Store:            uploadStore,
		Dispatcher:       dispatcher,
		MaxUploadBytes:   cfg.Upload.MaxBytes,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:  eventRepo,
		UserRepo:   userRepo,
		AuditRepo:  auditRepo,
		Dispatcher: dispatcher,
	})
	registrationService := service.NewRegistrationService(service.RegistrationDependencies{
		RegistrationRepo: registrationRepo,
		EventRepo:        eventRepo,
		AuditRepo:        auditRepo,
		Dispatcher:       dispatcher,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		UserRepo:         userRepo,
		EventRepo:        eventRepo,
		RegistrationRepo: registrationRepo,
		VerificationRepo: verificationRepo,
		Cache:            redis,
		Logger:           logger,
	})
	attestationService := service.NewAttestationService(registrationRepo, eventRepo, userRepo)
	userService := service.NewUserService(userRepo, auditRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.Upload.BodyLimit(),
		DisableStartupMessage: cfg.App.Env == "production",
	})

	apphttp.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	apphttp.RegisterRoutes(app, apphttp.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgres, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Verification:   handlers.NewVerificationHandler(verificationService),
		Events:         handlers.NewEventsHandler(eventService),
		Registrations:  handlers.NewRegistrationsHandler(registrationService, reportService, attestationService),
		Admin:          handlers.NewAdminHandler(verificationService, userService, reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
