package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// requestQueue spreads analysis requests across running instances.
const requestQueue = "pulse"

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

// NewClient connects to NATS. The connection keeps retrying in the
// background, so a broker that is briefly down does not stop startup.
func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(url, connectOptions(token, logger)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

func connectOptions(token string, logger *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name("pulse"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats connection lost", "url", nc.ConnectedUrlRedacted(), "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats connection restored", "url", nc.ConnectedUrlRedacted())
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	return opts
}

// Publish sends data as JSON on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishAnalysis publishes ev on the subject matching its type.
func (c *Client) PublishAnalysis(ctx context.Context, ev AnalysisEvent) error {
	subject, err := ev.Subject()
	if err != nil {
		return err
	}
	if err := c.Publish(subject, ev); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	c.logger.Debug("analysis event published", "subject", subject, "event_id", ev.EventID)
	return nil
}

// Subscribe delivers raw messages on subject to handler.
func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	return c.subscribe(subject, "", func(msg *nats.Msg) { handler(msg.Subject, msg.Data) })
}

// SubscribeAnalysisRequests hands every valid request on
// pulse.analysis.requested to handle. Requests are load-balanced across
// instances through a queue group; undecodable ones are logged and dropped.
func (c *Client) SubscribeAnalysisRequests(ctx context.Context, handle func(context.Context, AnalysisRequest)) error {
	return c.subscribe(SubjectAnalysisRequested, requestQueue, func(msg *nats.Msg) {
		req, err := DecodeAnalysisRequest(msg.Data)
		if err != nil {
			c.logger.Warn("dropping analysis request", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		handle(ctx, req)
	})
}

func (c *Client) subscribe(subject, queue string, cb nats.MsgHandler) error {
	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = c.conn.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = c.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

// Close drains subscriptions and closes the connection.
func (c *Client) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Debug("unsubscribe failed", "subject", sub.Subject, "error", err)
		}
	}
	c.conn.Close()
}
