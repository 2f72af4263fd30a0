// Package scheduler runs the periodic satisfaction sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one sweep run. It reports how many sessions it handled.
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// New validates spec (standard five-field cron or a descriptor such as
// "@every 10m") and prepares a scheduler that runs job on it in UTC.
// Overlapping runs are skipped.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:   spec,
		job:    job,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}, nil
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunNow); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)
	return nil
}

// RunNow runs the job once on the caller's goroutine.
func (s *Scheduler) RunNow() {
	start := time.Now()
	n, err := s.job(s.ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed", "error", err, "analyzed", n)
		return
	}
	s.logger.Info("scheduled sweep finished", "analyzed", n, "duration", time.Since(start))
}

// Stop cancels any running sweep and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
