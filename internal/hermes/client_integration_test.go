//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/pulse/internal/extractor"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PublishAnalysis(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan AnalysisEvent, 1)
	err = client.Subscribe("pulse.analysis.>", func(subject string, data []byte) {
		var ev AnalysisEvent
		json.Unmarshal(data, &ev)
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	sent := StoredEvent("sess-int", 7, extractor.Record{NameOfEmployee: "Ana", Satisfaction: extractor.SatisfactionBad})
	if err := client.PublishAnalysis(ctx, sent); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.EventID != sent.EventID || ev.Satisfaction != extractor.SatisfactionBad {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestIntegration_AnalysisRequests(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	got := make(chan AnalysisRequest, 1)
	if err := client.SubscribeAnalysisRequests(ctx, func(_ context.Context, req AnalysisRequest) {
		got <- req
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	// Invalid requests are dropped before reaching the handler.
	if err := client.Publish(SubjectAnalysisRequested, map[string]string{"request_id": "empty"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := client.Publish(SubjectAnalysisRequested, AnalysisRequest{RequestID: "r1", SessionID: "sess-int"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case req := <-got:
		if req.RequestID != "r1" || req.SessionID != "sess-int" {
			t.Errorf("unexpected request %+v", req)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for request")
	}
}
