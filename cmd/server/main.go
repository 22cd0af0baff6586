package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/athlinked/talent-verification-go/internal/config"
	"github.com/athlinked/talent-verification-go/internal/db"
	"github.com/athlinked/talent-verification-go/internal/db/repository"
	"github.com/athlinked/talent-verification-go/internal/handler"
	"github.com/athlinked/talent-verification-go/internal/middleware"
	"github.com/athlinked/talent-verification-go/internal/queue"
	"github.com/athlinked/talent-verification-go/internal/service"
	"github.com/athlinked/talent-verification-go/internal/validation"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pool, err := db.NewPool(ctx, &db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxLifetime,
		MaxConnIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	logger.Log.Info("database connection established",
		zap.Int32("max_conns", pool.Config().MaxConns),
	)

	videoRepo := repository.NewTalentVideoRepository(pool)
	recordRepo := repository.NewVerificationRecordRepository(pool)

	// The notifier transports are optional: a missing broker degrades to
	// log-only fan-out, it never blocks verification itself.
	var publisher *service.EventPublisher
	publisher, err = service.NewEventPublisher(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, verified events will not be published", zap.Error(err))
		publisher = nil
	} else {
		defer publisher.Close() //nolint:errcheck
	}

	queueClient := queue.NewClient(&cfg.Redis)
	defer queueClient.Close() //nolint:errcheck

	notifier := service.NewVerifiedNotifier(publisher, queueClient)
	validator := validation.New(cfg.Verification.MaxMessageSize)

	verificationService := service.NewVerificationService(
		pool,
		videoRepo,
		recordRepo,
		validator,
		notifier,
		service.Options{
			MaxRetries:   cfg.Verification.MaxRetries,
			RetryBackoff: cfg.Verification.RetryBackoff,
		},
	)

	verificationHandler := handler.NewVerificationHandler(verificationService)
	videoHandler := handler.NewVideoHandler(videoRepo, recordRepo, cfg.Verification.DefaultGoal)
	healthHandler := handler.NewHealthHandler(pool, publisher)

	sessionAuth := middleware.NewSessionAuth(cfg.Server.SessionSecret)
	apiKeyAuth := middleware.NewAPIKeyAuth(cfg.Server.APIKeys)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(sessionAuth.Middleware())
	{
		api.POST("/videos/:id/verifications", verificationHandler.HandleSubmit)
		api.GET("/videos/:id", videoHandler.HandleGetVideo)
	}

	admin := router.Group("/api/v1")
	admin.Use(apiKeyAuth.Middleware())
	{
		admin.POST("/videos", videoHandler.HandleCreateVideo)
		admin.GET("/videos/:id/verifications", videoHandler.HandleListRecords)
		admin.PATCH("/videos/:id/verification-goal", videoHandler.HandleUpdateGoal)
		admin.PATCH("/videos/:id/verification-deadline", videoHandler.HandleUpdateDeadline)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		logger.Log.Info("server stopped gracefully")
	}
}
