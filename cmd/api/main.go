package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/chatserver/internal/api"
	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/cache"
	"github.com/nikhilbhutani/chatserver/internal/chat"
	"github.com/nikhilbhutani/chatserver/internal/config"
	"github.com/nikhilbhutani/chatserver/internal/database"
	"github.com/nikhilbhutani/chatserver/internal/queue"
	"github.com/nikhilbhutani/chatserver/internal/storage"
	"github.com/nikhilbhutani/chatserver/internal/user"
	"github.com/nikhilbhutani/chatserver/internal/workspace"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Keys are required: the server never starts without them
	keys, err := loadKeys(cfg.Auth)
	if err != nil {
		slog.Error("failed to load auth keys", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrations, err := database.Migrations(cfg.Database.MigrationsPath)
	if err != nil {
		slog.Error("failed to open migrations", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(ctx, db, migrations); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Redis backs the users cache and the task queue; both degrade without it
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var usersCache *cache.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	} else {
		usersCache = cache.NewCache(rdb, "chat:")
	}
	defer rdb.Close()

	backend, err := storage.NewBackend(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to set up storage", "error", err)
		os.Exit(1)
	}
	files := storage.NewFileStore(backend)

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	workspaces := workspace.NewService(db, usersCache, cfg.Limits.UsersCacheTTL)
	users := user.NewService(db, workspaces)
	chats := chat.NewService(db, files)

	router := api.NewRouter(cfg, api.Deps{
		DB:        db,
		Redis:     rdb,
		Verifier:  auth.NewVerifier(keys.Verifying),
		Signer:    auth.NewIssuer(keys.Signing),
		Users:     users,
		Directory: workspaces,
		Chats:     chats,
		Files:     files,
		Verify:    queueClient,
	})
	handler := router.Setup()

	stop := make(chan struct{})
	go router.Limiter().Cleanup(time.Minute, stop)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	close(stop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func loadKeys(cfg config.AuthConfig) (*auth.Keys, error) {
	signing, err := cfg.SigningKey()
	if err != nil {
		return nil, &auth.KeyLoadError{Kind: "signing", Err: err}
	}
	verifying, err := cfg.VerifyingKey()
	if err != nil {
		return nil, &auth.KeyLoadError{Kind: "verifying", Err: err}
	}
	return auth.LoadKeys(signing, verifying)
}
