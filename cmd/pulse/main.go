package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/pulse/internal/api"
	"github.com/MikeSquared-Agency/pulse/internal/config"
	"github.com/MikeSquared-Agency/pulse/internal/dialogue"
	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/llm"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
	"github.com/MikeSquared-Agency/pulse/internal/scheduler"
	"github.com/MikeSquared-Agency/pulse/internal/store"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "backfill" {
		os.Exit(runBackfill(cfg, os.Args[2:]))
	}

	slog.Info("pulse starting", "port", cfg.Port, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database ready")

	// Generation service
	client, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider)
	if err != nil {
		slog.Error("failed to create generation client", "error", err)
		os.Exit(1)
	}
	slog.Info("generation client ready", "provider", cfg.LLMProvider)

	sessions := history.NewStore()
	pipe := dialogue.New(client, sessions, slog.Default())
	ext := extractor.New(client, slog.Default())

	// NATS/Hermes and Slack (optional)
	hermesClient, opts, err := eventSinks(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	if hermesClient != nil {
		defer hermesClient.Close()
	}

	proc := processor.New(sessions, pipe, ext, db, slog.Default(), opts...)

	if hermesClient != nil {
		if err := hermesClient.SubscribeAnalysisRequests(ctx, proc.HandleAnalysisRequest); err != nil {
			slog.Error("failed to subscribe to analysis requests", "error", err)
			os.Exit(1)
		}
	}

	// Scheduled sweep (optional)
	if cfg.AnalysisSchedule != "" {
		sched, err := scheduler.New(cfg.AnalysisSchedule, proc.Sweep, slog.Default())
		if err != nil {
			slog.Error("invalid analysis schedule", "error", err)
			os.Exit(1)
		}
		if err := sched.Start(); err != nil {
			slog.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, proc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if hermesClient != nil {
		if err := hermesClient.Publish("pulse.service.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"provider":  cfg.LLMProvider,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("pulse ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("pulse stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
