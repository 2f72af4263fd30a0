package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/processor"
	"github.com/MikeSquared-Agency/pulse/internal/store"
)

type analyzeRequest struct {
	Conversation []history.Exchange `json:"conversation"`
}

// analyzeSession handles POST /api/v1/sessions/{id}/analyze
func (s *Server) analyzeSession(w http.ResponseWriter, r *http.Request) {
	a, err := s.proc.AnalyzeSession(r.Context(), chi.URLParam(r, "id"))
	s.writeAnalysis(w, a, err)
}

// analyzeConversation handles POST /api/v1/analyze
func (s *Server) analyzeConversation(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	a, err := s.proc.AnalyzeExchanges(r.Context(), req.Conversation)
	s.writeAnalysis(w, a, err)
}

// writeAnalysis maps an analysis to 200 (record), 422 (extraction error)
// or 500 (record produced but not stored).
func (s *Server) writeAnalysis(w http.ResponseWriter, a processor.Analysis, err error) {
	switch {
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  err.Error(),
			"record": a.Record,
		})
	case !a.OK():
		writeJSON(w, http.StatusUnprocessableEntity, a.Error)
	default:
		writeJSON(w, http.StatusOK, a.Record)
	}
}

// listAnalyses handles GET /api/v1/analyses
func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	rows, err := s.proc.Analyses(r.Context())
	if err != nil {
		s.logger.Error("fetch analyses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetch analyses failed")
		return
	}
	if rows == nil {
		rows = []store.AnalysisRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// summary handles GET /api/v1/analyses/summary
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.proc.Summary(r.Context())
	if err != nil {
		s.logger.Error("summarize analyses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "summarize analyses failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
