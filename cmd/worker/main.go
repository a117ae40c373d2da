package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/chatserver/internal/config"
	"github.com/nikhilbhutani/chatserver/internal/queue"
	"github.com/nikhilbhutani/chatserver/internal/queue/workers"
	"github.com/nikhilbhutani/chatserver/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	backend, err := storage.NewBackend(context.Background(), cfg.Storage)
	if err != nil {
		slog.Error("failed to set up storage", "error", err)
		os.Exit(1)
	}

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := workers.NewMux(storage.NewFileStore(backend))

	slog.Info("starting worker", "concurrency", 10, "storage", cfg.Storage.Backend)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
