package main

import (
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/pulse/internal/backfill"
	"github.com/MikeSquared-Agency/pulse/internal/config"
	"github.com/MikeSquared-Agency/pulse/internal/dialogue"
	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/llm"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
	"github.com/MikeSquared-Agency/pulse/internal/store"
)

// runBackfill analyzes exported conversation files:
//
//	pulse backfill -dir ./exports [-file x.json] [-state path] [-min-exchanges n] [-dry-run] [-watch]
func runBackfill(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	var bc backfill.Config
	fs.StringVar(&bc.Dir, "dir", "", "directory of .json/.jsonl conversation exports")
	fs.StringVar(&bc.SingleFile, "file", "", "process a single file only")
	fs.StringVar(&bc.StatePath, "state", backfill.DefaultStatePath, "progress file for resumable runs")
	fs.IntVar(&bc.MinExchanges, "min-exchanges", 1, "skip conversations with fewer exchanges")
	fs.BoolVar(&bc.DryRun, "dry-run", false, "parse and list conversations without analyzing")
	watch := fs.Bool("watch", false, "keep running and analyze new exports as they appear")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	client, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider)
	if err != nil {
		slog.Error("failed to create generation client", "error", err)
		return 1
	}

	// Backfilled analyses publish and alert like live ones.
	hermesClient, opts, err := eventSinks(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		return 1
	}
	if hermesClient != nil {
		defer hermesClient.Close()
	}

	sessions := history.NewStore()
	proc := processor.New(sessions,
		dialogue.New(client, sessions, slog.Default()),
		extractor.New(client, slog.Default()),
		db,
		slog.Default(),
		opts...,
	)

	runner := backfill.NewRunner(bc, proc, slog.Default())
	if *watch {
		if err := runner.Watch(ctx); err != nil {
			slog.Error("backfill watch failed", "error", err)
			return 1
		}
		return 0
	}

	state, err := runner.Run(ctx)
	if err != nil {
		slog.Error("backfill failed", "error", err)
		return 1
	}

	slog.Info("backfill finished",
		"analyzed", state.Analyzed,
		"failed", state.Failed,
		"by_satisfaction", state.BySatisfaction,
	)
	if len(state.Errors) > 0 {
		slog.Warn("some files were not analyzed, see the state file", "errors", len(state.Errors), "state", bc.StatePath)
	}
	return 0
}
