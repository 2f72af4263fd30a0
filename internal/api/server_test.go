package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pulse/internal/dialogue"
	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/llm"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
	"github.com/MikeSquared-Agency/pulse/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLLM struct {
	mu            sync.Mutex
	chatReply     string
	chatErr       error
	analysisReply string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, params llm.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(prompt, "name_of_employee") {
		return f.analysisReply, nil
	}
	return f.chatReply, f.chatErr
}

func newTestServer(t *testing.T, fake *fakeLLM, token string) *Server {
	t.Helper()
	st, err := store.NewSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	logger := discardLogger()
	h := history.NewStore()
	proc := processor.New(h, dialogue.New(fake, h, logger), extractor.New(fake, logger), st, logger)
	return NewServer(8760, token, proc, logger)
}

func do(srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")

	w := do(srv, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")
	do(srv, "POST", "/api/v1/sessions", "")

	w := do(srv, "GET", "/api/v1/pulse/status", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	decode(t, w, &body)
	if body["agent"] != "pulse" {
		t.Errorf("expected agent pulse, got %v", body["agent"])
	}
	if body["sessions"] != float64(1) {
		t.Errorf("expected 1 session, got %v", body["sessions"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")

	w := do(srv, "GET", "/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "s3cret")

	if w := do(srv, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health must stay open, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/v1/analyses", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/v1/analyses", "", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/v1/analyses", "", "Authorization", "Bearer s3cret"); w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")

	w := do(srv, "POST", "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if _, err := uuid.Parse(body["session_id"]); err != nil {
		t.Errorf("expected uuid session id, got %q", body["session_id"])
	}
}

func TestTurnAndHistory(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{chatReply: "Assistant: That sounds hard."}, "")

	w := do(srv, "POST", "/api/v1/sessions/s1/turns", `{"text":"My shift was awful."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var turn map[string]string
	decode(t, w, &turn)
	if turn["reply"] != "That sounds hard." {
		t.Errorf("expected sanitized reply, got %q", turn["reply"])
	}

	w = do(srv, "GET", "/api/v1/sessions/s1/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var hist struct {
		Turns     []history.Turn     `json:"turns"`
		Exchanges []history.Exchange `json:"exchanges"`
	}
	decode(t, w, &hist)
	if len(hist.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(hist.Turns))
	}
	if len(hist.Exchanges) != 1 || hist.Exchanges[0].Human != "My shift was awful." {
		t.Errorf("unexpected exchanges %+v", hist.Exchanges)
	}
}

func TestTurn_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{chatReply: "ok"}, "")

	if w := do(srv, "POST", "/api/v1/sessions/s1/turns", `{"text":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty text, got %d", w.Code)
	}
	if w := do(srv, "POST", "/api/v1/sessions/s1/turns", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestTurn_GenerationFailure(t *testing.T) {
	fake := &fakeLLM{chatErr: &llm.ServiceError{Provider: "watsonx", StatusCode: 429, Message: "quota"}}
	srv := newTestServer(t, fake, "")

	w := do(srv, "POST", "/api/v1/sessions/s1/turns", `{"text":"hello"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if !strings.Contains(body["error"], "quota") {
		t.Errorf("expected provider message in error, got %q", body["error"])
	}

	w = do(srv, "GET", "/api/v1/sessions/s1/history", "")
	var hist struct {
		Turns []history.Turn `json:"turns"`
	}
	decode(t, w, &hist)
	if len(hist.Turns) != 1 || hist.Turns[0].Role != history.RoleHuman {
		t.Errorf("expected the human turn to be kept, got %+v", hist.Turns)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{chatReply: "hi"}, "")
	do(srv, "POST", "/api/v1/sessions/s1/turns", `{"text":"hello"}`)

	if w := do(srv, "DELETE", "/api/v1/sessions/s1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w := do(srv, "GET", "/api/v1/sessions/s1/history", "")
	var hist struct {
		Turns []history.Turn `json:"turns"`
	}
	decode(t, w, &hist)
	if hist.Turns == nil || len(hist.Turns) != 0 {
		t.Errorf("expected empty turn list, got %v", hist.Turns)
	}
}

func TestAnalyzeSession(t *testing.T) {
	fake := &fakeLLM{chatReply: "Sorry to hear.", analysisReply: `{"name_of_employee": "John", "satisfaction": "Bad"}`}
	srv := newTestServer(t, fake, "")
	do(srv, "POST", "/api/v1/sessions/s1/turns", `{"text":"John was rude."}`)

	w := do(srv, "POST", "/api/v1/sessions/s1/analyze", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rec extractor.Record
	decode(t, w, &rec)
	if rec.NameOfEmployee != "John" || rec.Satisfaction != extractor.SatisfactionBad {
		t.Errorf("unexpected record %+v", rec)
	}

	w = do(srv, "GET", "/api/v1/analyses", "")
	var rows []store.AnalysisRow
	decode(t, w, &rows)
	if len(rows) != 1 || rows[0].Name != "John" {
		t.Errorf("expected stored row for John, got %+v", rows)
	}
}

func TestAnalyzeSession_EmptyIs422(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")

	w := do(srv, "POST", "/api/v1/sessions/empty/analyze", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["kind"] != string(extractor.KindEmptyConversation) {
		t.Errorf("expected empty_conversation kind, got %v", body["kind"])
	}
	if v, ok := body["raw_response"]; !ok || v != nil {
		t.Errorf("expected null raw_response, got %v", v)
	}
}

func TestAnalyzeConversation(t *testing.T) {
	fake := &fakeLLM{analysisReply: `Sure! {"name_of_employee": "", "satisfaction": "Good"} Thanks.`}
	srv := newTestServer(t, fake, "")

	w := do(srv, "POST", "/api/v1/analyze", `{"conversation":[{"Human":"Thanks, all sorted.","Assistant":"Great!"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rec extractor.Record
	decode(t, w, &rec)
	if rec.Satisfaction != extractor.SatisfactionGood {
		t.Errorf("expected Good, got %q", rec.Satisfaction)
	}
}

func TestAnalyzeConversation_Malformed(t *testing.T) {
	fake := &fakeLLM{analysisReply: `{"satisfaction": "Good"}`}
	srv := newTestServer(t, fake, "")

	w := do(srv, "POST", "/api/v1/analyze", `{"conversation":[{"Human":"hi","Assistant":"hello"}]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["kind"] != string(extractor.KindMalformedOutput) {
		t.Errorf("expected malformed_output, got %v", body["kind"])
	}
	if body["raw_response"] != `{"satisfaction": "Good"}` {
		t.Errorf("expected raw response, got %v", body["raw_response"])
	}

	if w := do(srv, "POST", "/api/v1/analyze", `{"conversation":`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestAnalysesSummary(t *testing.T) {
	fake := &fakeLLM{analysisReply: `{"name_of_employee": "", "satisfaction": "Average"}`}
	srv := newTestServer(t, fake, "")
	for i := 0; i < 2; i++ {
		do(srv, "POST", "/api/v1/analyze", `{"conversation":[{"Human":"meh","Assistant":"ok"}]}`)
	}

	w := do(srv, "GET", "/api/v1/analyses/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sum processor.Summary
	decode(t, w, &sum)
	if sum.Total != 2 {
		t.Errorf("expected total 2, got %d", sum.Total)
	}
	if len(sum.Counts) != 3 || sum.Counts[1].Satisfaction != "Average" || sum.Counts[1].Count != 2 {
		t.Errorf("unexpected counts %+v", sum.Counts)
	}
}

func TestListAnalyses_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{}, "")

	w := do(srv, "GET", "/api/v1/analyses", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}
