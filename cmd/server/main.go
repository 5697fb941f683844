package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/api"
	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/config"
	"github.com/joeychilson/chat/internal/generate"
	"github.com/joeychilson/chat/internal/handlers"
	"github.com/joeychilson/chat/internal/history"
	"github.com/joeychilson/chat/internal/provider"
	"github.com/joeychilson/chat/internal/storage"
	"github.com/joeychilson/chat/internal/store"
	"github.com/joeychilson/chat/internal/stream"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the store. Postgres in production, SQLite for local dev.
	var st store.Store
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		st = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		st = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite")
	}
	defer st.Close()

	// Redis backs both resumable streams and rate limiting
	broker, err := stream.NewRedisBroker(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer broker.Close()
	logger.Info().Msg("connected to Redis")

	streams := stream.NewManager(broker, st, logger)

	objects, err := storage.NewS3(ctx, storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("s3 setup failed")
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("model catalog failed to load")
	}

	providers, err := provider.NewRegistry(ctx, provider.Config{
		OpenAIKey: cfg.OpenAIKey,
		GoogleKey: cfg.GoogleKey,
		XAIKey:    cfg.XAIKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("provider setup failed")
	}

	orchestrator := generate.NewOrchestrator(cat, providers, st, streams, objects, logger)
	mutator := history.NewMutator(st, cat, logger)
	handler := handlers.NewHandler(st, objects, cat, orchestrator, mutator, streams, broker.Client(), logger)

	// Create router
	router := api.NewRouter(api.RouterConfig{
		Handler: handler,
		Store:   st,
		Redis:   broker.Client(),
		Logger:  logger,
		RateLimiter: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
	})

	// Create server. No WriteTimeout because generation responses are
	// long-lived SSE streams.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
