package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/pulse/internal/extractor"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Alert describes a stored analysis that needs attention.
type Alert struct {
	SessionID  string
	AnalysisID int64
	Record     extractor.Record
	Exchanges  int
}

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostAlert posts a dissatisfaction alert to the configured channel and
// returns the message timestamp.
func (p *Poster) PostAlert(ctx context.Context, a Alert) (string, error) {
	text := formatAlert(a)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Analysis #%d", a.AnalysisID),
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted satisfaction alert to slack", "ts", slackResp.TS, "analysis_id", a.AnalysisID)
	return slackResp.TS, nil
}

func formatAlert(a Alert) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Dissatisfied conversation:* rated %s\n", a.Record.Satisfaction)
	if a.Record.NameOfEmployee != "" {
		fmt.Fprintf(&sb, "*Employee mentioned:* %s\n", a.Record.NameOfEmployee)
	} else {
		sb.WriteString("_No employee named._\n")
	}
	if a.SessionID != "" {
		fmt.Fprintf(&sb, "*Session:* %s (%d exchanges)\n", a.SessionID, a.Exchanges)
	} else {
		fmt.Fprintf(&sb, "*Submitted conversation:* %d exchanges\n", a.Exchanges)
	}

	return sb.String()
}
