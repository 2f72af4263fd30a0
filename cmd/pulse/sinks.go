package main

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/pulse/internal/config"
	"github.com/MikeSquared-Agency/pulse/internal/hermes"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
	"github.com/MikeSquared-Agency/pulse/internal/slack"
)

// eventSinks connects the optional NATS publisher and Slack alerter. The
// returned client is nil when NATS is not configured; the caller closes it.
func eventSinks(ctx context.Context, cfg config.Config) (*hermes.Client, []processor.Option, error) {
	var (
		nc   *hermes.Client
		opts []processor.Option
	)

	if cfg.NatsURL != "" {
		var err error
		nc, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, processor.WithPublisher(nc))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, analysis events will not be published")
	}

	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		opts = append(opts, processor.WithAlerter(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())))
		slog.Info("slack alerts ready", "channel", cfg.SlackChannel)
	}

	return nc, opts, nil
}
