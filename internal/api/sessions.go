package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
)

type turnRequest struct {
	Text string `json:"text"`
}

type historyResponse struct {
	SessionID string             `json:"session_id"`
	Turns     []history.Turn     `json:"turns"`
	Exchanges []history.Exchange `json:"exchanges"`
}

// createSession handles POST /api/v1/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := s.proc.CreateSession()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// postTurn handles POST /api/v1/sessions/{id}/turns
func (s *Server) postTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	reply, err := s.proc.Chat(r.Context(), id, req.Text)
	if errors.Is(err, processor.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// getHistory handles GET /api/v1/sessions/{id}/history
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turns := s.proc.History(id)

	resp := historyResponse{
		SessionID: id,
		Turns:     turns,
		Exchanges: history.Exchanges(turns),
	}
	if resp.Turns == nil {
		resp.Turns = []history.Turn{}
	}
	if resp.Exchanges == nil {
		resp.Exchanges = []history.Exchange{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteSession handles DELETE /api/v1/sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	s.proc.Reset(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
