package main

import (
	"fmt"
	"os"

	"github.com/athlinked/talent-verification-go/internal/config"
	"github.com/athlinked/talent-verification-go/internal/queue"
	"github.com/athlinked/talent-verification-go/internal/service/profile"
	"github.com/athlinked/talent-verification-go/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// The worker drains the verified-badge queue. It runs separately from the
// API server so profile-service outages back up here instead of in request
// handling.
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

	profileClient := profile.NewClient(profile.Config{
		BaseURL: cfg.Profile.BaseURL,
		APIKey:  cfg.Profile.APIKey,
		Timeout: cfg.Profile.Timeout,
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	queue.NewHandler(profileClient).Register(mux)

	logger.Log.Info("worker starting",
		zap.String("redis", cfg.Redis.Addr),
		zap.String("profile", cfg.Profile.BaseURL),
	)

	if err := srv.Run(mux); err != nil {
		logger.Log.Fatal("worker stopped", zap.Error(err))
	}
}
