package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
)

// Config holds the backfill command configuration.
type Config struct {
	Dir          string
	SingleFile   string // process a single file only
	StatePath    string
	DryRun       bool
	MinExchanges int
}

// Analyzer classifies and stores one conversation.
type Analyzer interface {
	AnalyzeExchanges(ctx context.Context, exchanges []history.Exchange) (processor.Analysis, error)
}

// Runner analyzes exported conversations and records progress so an
// interrupted run resumes where it stopped.
type Runner struct {
	cfg      Config
	analyzer Analyzer
	logger   *slog.Logger
}

func NewRunner(cfg Config, analyzer Analyzer, logger *slog.Logger) *Runner {
	if cfg.MinExchanges < 1 {
		cfg.MinExchanges = 1
	}
	return &Runner{cfg: cfg, analyzer: analyzer, logger: logger}
}

// Run processes every pending file and returns the updated state.
func (r *Runner) Run(ctx context.Context) (*BackfillState, error) {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "count", len(files), "dry_run", r.cfg.DryRun)

	var pending []Conversation
	for _, path := range files {
		if state.IsProcessed(path) {
			continue
		}
		exchanges, err := ParseFile(path)
		if err != nil {
			r.logger.Warn("failed to parse file", "path", path, "error", err)
			state.SetError(path, fmt.Sprintf("parse: %v", err))
			continue
		}
		pending = append(pending, Conversation{
			Path:        path,
			Exchanges:   exchanges,
			Fingerprint: Fingerprint(exchanges),
		})
	}

	if r.cfg.DryRun {
		for _, c := range pending {
			r.logger.Info("would analyze", "path", c.Path, "exchanges", len(c.Exchanges))
		}
		return state, nil
	}

	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return state, r.save(state, err)
		}
		r.process(ctx, state, c)
		if err := state.Save(); err != nil {
			return state, fmt.Errorf("save state: %w", err)
		}
	}

	r.logger.Info("backfill complete",
		"analyzed", state.Analyzed,
		"failed", state.Failed,
		"errors", len(state.Errors),
	)
	return state, state.Save()
}

func (r *Runner) process(ctx context.Context, state *BackfillState, c Conversation) {
	switch {
	case len(c.Exchanges) < r.cfg.MinExchanges:
		r.logger.Debug("skipping short conversation", "path", c.Path, "exchanges", len(c.Exchanges))
		state.ClearError(c.Path)
		state.MarkProcessed(c.Path)
		return
	case state.Seen(c.Fingerprint):
		r.logger.Info("skipping duplicate conversation", "path", c.Path)
		state.ClearError(c.Path)
		state.MarkProcessed(c.Path)
		return
	}

	a, err := r.analyzer.AnalyzeExchanges(ctx, c.Exchanges)
	if err != nil {
		r.logger.Error("analysis not stored", "path", c.Path, "error", err)
		state.SetError(c.Path, fmt.Sprintf("store: %v", err))
		return
	}

	if a.Error != nil {
		state.SetError(c.Path, fmt.Sprintf("analyze: %s: %v", a.Error.Kind, a.Error))
		if a.Error.Kind == extractor.KindService {
			// Left pending for the next run.
			return
		}
		state.Failed++
	} else {
		state.ClearError(c.Path)
		state.Analyzed++
		state.BySatisfaction[string(a.Record.Satisfaction)]++
		r.logger.Info("conversation analyzed",
			"path", c.Path,
			"id", a.ID,
			"satisfaction", a.Record.Satisfaction,
		)
	}

	state.MarkProcessed(c.Path)
	state.MarkSeen(c.Fingerprint)
}

func (r *Runner) save(state *BackfillState, cause error) error {
	if err := state.Save(); err != nil {
		return fmt.Errorf("save state: %w (after %v)", err, cause)
	}
	return cause
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("no input directory or file")
	}

	statePath := expandHome(r.cfg.StatePath)
	var files []string
	err := filepath.WalkDir(expandHome(r.cfg.Dir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == statePath {
			return nil
		}
		if format, _ := fileKind(path); format != "" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
