package hermes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/history"
)

const (
	SubjectAnalysisRequested = "pulse.analysis.requested"
	SubjectAnalysisStored    = "pulse.analysis.stored"
	SubjectAnalysisFailed    = "pulse.analysis.failed"
)

const (
	EventStored = "stored"
	EventFailed = "failed"
)

// AnalysisEvent announces the outcome of one satisfaction analysis.
type AnalysisEvent struct {
	EventID        string                 `json:"event_id"`
	Type           string                 `json:"type"`
	RequestID      string                 `json:"request_id,omitempty"`
	SessionID      string                 `json:"session_id,omitempty"`
	AnalysisID     int64                  `json:"analysis_id,omitempty"`
	NameOfEmployee string                 `json:"name_of_employee,omitempty"`
	Satisfaction   extractor.Satisfaction `json:"satisfaction,omitempty"`
	ErrorKind      extractor.ErrorKind    `json:"error_kind,omitempty"`
	Error          string                 `json:"error,omitempty"`
	RawResponse    *string                `json:"raw_response,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

func StoredEvent(sessionID string, analysisID int64, rec extractor.Record) AnalysisEvent {
	return AnalysisEvent{
		EventID:        uuid.NewString(),
		Type:           EventStored,
		SessionID:      sessionID,
		AnalysisID:     analysisID,
		NameOfEmployee: rec.NameOfEmployee,
		Satisfaction:   rec.Satisfaction,
		Timestamp:      time.Now().UTC(),
	}
}

func FailedEvent(sessionID string, e *extractor.ExtractionError) AnalysisEvent {
	return AnalysisEvent{
		EventID:     uuid.NewString(),
		Type:        EventFailed,
		SessionID:   sessionID,
		ErrorKind:   e.Kind,
		Error:       e.Error(),
		RawResponse: e.RawResponse,
		Timestamp:   time.Now().UTC(),
	}
}

func (ev AnalysisEvent) Subject() (string, error) {
	switch ev.Type {
	case EventStored:
		return SubjectAnalysisStored, nil
	case EventFailed:
		return SubjectAnalysisFailed, nil
	default:
		return "", fmt.Errorf("unknown analysis event type %q", ev.Type)
	}
}

// AnalysisRequest asks for a conversation to be analyzed. Conversation,
// when present, is analyzed as given; otherwise the live session named by
// SessionID is. RequestID is echoed on the resulting event.
type AnalysisRequest struct {
	RequestID    string             `json:"request_id,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`
	Conversation []history.Exchange `json:"conversation,omitempty"`
}

var ErrEmptyRequest = errors.New("analysis request names no session and carries no conversation")

func DecodeAnalysisRequest(data []byte) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("decode analysis request: %w", err)
	}
	if req.SessionID == "" && len(req.Conversation) == 0 {
		return AnalysisRequest{}, ErrEmptyRequest
	}
	return req, nil
}
