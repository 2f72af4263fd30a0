package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAnthropic(url string) *AnthropicClient {
	c := NewAnthropic("test-key", "test-model", 0)
	c.url = url
	return c
}

func TestAnthropic_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key test-key, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("expected anthropic-version %s, got %q", anthropicVersion, r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		if req.MaxTokens != 70 {
			t.Errorf("expected max_tokens 70, got %d", req.MaxTokens)
		}
		if req.Temperature == nil || *req.Temperature != 0 {
			t.Errorf("expected explicit zero temperature, got %v", req.Temperature)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "wor"},
				{"type": "text", "text": "ld"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	got, err := newTestAnthropic(server.URL).Generate(context.Background(), "hello", DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "world" {
		t.Errorf("expected world, got %q", got)
	}
}

func TestAnthropic_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer server.Close()

	_, err := newTestAnthropic(server.URL).Generate(context.Background(), "hello", DefaultParams())
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests || se.Code != "rate_limit_error" || se.Message != "slow down" {
		t.Errorf("unexpected service error %+v", se)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer server.Close()

	_, err := newTestAnthropic(server.URL).Generate(context.Background(), "hello", DefaultParams())
	if !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestAnthropic_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestAnthropic(url).Generate(context.Background(), "hello", DefaultParams())
	if !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}
}
