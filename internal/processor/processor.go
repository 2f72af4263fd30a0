package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pulse/internal/dialogue"
	"github.com/MikeSquared-Agency/pulse/internal/extractor"
	"github.com/MikeSquared-Agency/pulse/internal/hermes"
	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/slack"
	"github.com/MikeSquared-Agency/pulse/internal/store"
)

var ErrEmptyMessage = errors.New("message text is empty")

// Publisher announces analysis outcomes.
type Publisher interface {
	PublishAnalysis(ctx context.Context, ev hermes.AnalysisEvent) error
}

// Alerter notifies humans about Bad ratings.
type Alerter interface {
	PostAlert(ctx context.Context, a slack.Alert) (string, error)
}

// Analysis is the outcome of one analyze call. ID is set once the record
// has been stored.
type Analysis struct {
	ID int64
	extractor.Result
}

// Processor orchestrates chat turns, satisfaction analysis and the
// side effects of a stored analysis.
type Processor struct {
	history   *history.Store
	pipeline  *dialogue.Pipeline
	extractor *extractor.Extractor
	store     store.Store
	publisher Publisher
	alerter   Alerter
	logger    *slog.Logger

	mu       sync.Mutex
	analyzed map[string]int // session id -> turn count at last analysis
}

type Option func(*Processor)

func WithPublisher(pub Publisher) Option {
	return func(p *Processor) { p.publisher = pub }
}

func WithAlerter(a Alerter) Option {
	return func(p *Processor) { p.alerter = a }
}

func New(h *history.Store, pipe *dialogue.Pipeline, ext *extractor.Extractor, s store.Store, logger *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		history:   h,
		pipeline:  pipe,
		extractor: ext,
		store:     s,
		logger:    logger,
		analyzed:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateSession registers a new session under a fresh id.
func (p *Processor) CreateSession() string {
	id := uuid.NewString()
	p.history.GetOrCreate(id)
	return id
}

func (p *Processor) Sessions() []string {
	return p.history.Sessions()
}

// Chat runs one dialogue turn for sessionID.
func (p *Processor) Chat(ctx context.Context, sessionID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	return p.pipeline.Turn(ctx, text, sessionID)
}

func (p *Processor) History(sessionID string) []history.Turn {
	return p.history.Turns(sessionID)
}

func (p *Processor) Reset(sessionID string) {
	p.history.Reset(sessionID)
	p.mu.Lock()
	delete(p.analyzed, sessionID)
	p.mu.Unlock()
	p.logger.Info("session reset", "session_id", sessionID)
}

// AnalyzeSession classifies the session's conversation so far. Unknown ids
// are not registered; they analyze as an empty conversation.
func (p *Processor) AnalyzeSession(ctx context.Context, sessionID string) (Analysis, error) {
	return p.analyzeByID(ctx, sessionID, "")
}

func (p *Processor) analyzeByID(ctx context.Context, sessionID, requestID string) (Analysis, error) {
	sess, ok := p.history.Lookup(sessionID)
	if !ok {
		return p.analyze(ctx, sessionID, requestID, nil)
	}
	return p.analyzeSession(ctx, sess, requestID)
}

func (p *Processor) analyzeSession(ctx context.Context, sess *history.Session, requestID string) (Analysis, error) {
	id := sess.ID()
	turns := sess.Turns()
	a, err := p.analyze(ctx, id, requestID, history.Exchanges(turns))

	// Store and service failures are retried by the next sweep; anything
	// else the model said about these turns is final.
	if err != nil || (a.Error != nil && a.Error.Kind == extractor.KindService) {
		return a, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.history.Lookup(id); ok && cur == sess {
		p.analyzed[id] = len(turns)
	}
	return a, nil
}

// AnalyzeExchanges classifies a conversation supplied by the caller.
func (p *Processor) AnalyzeExchanges(ctx context.Context, exchanges []history.Exchange) (Analysis, error) {
	return p.analyze(ctx, "", "", exchanges)
}

// HandleAnalysisRequest serves a request received on the event bus. The
// outcome goes out as the usual stored or failed event, tagged with the
// request id.
func (p *Processor) HandleAnalysisRequest(ctx context.Context, req hermes.AnalysisRequest) {
	var err error
	if len(req.Conversation) > 0 {
		_, err = p.analyze(ctx, req.SessionID, req.RequestID, req.Conversation)
	} else {
		_, err = p.analyzeByID(ctx, req.SessionID, req.RequestID)
	}
	if err != nil {
		p.logger.Error("requested analysis failed", "request_id", req.RequestID, "error", err)
	}
}

// analyze returns an error only when a record could not be stored; the
// record itself is still returned so the caller can show it.
func (p *Processor) analyze(ctx context.Context, sessionID, requestID string, exchanges []history.Exchange) (Analysis, error) {
	res := p.extractor.Analyze(ctx, exchanges)
	if res.Error != nil {
		p.logger.Warn("analysis failed",
			"session_id", sessionID,
			"kind", res.Error.Kind,
			"error", res.Error.Error(),
		)
		p.publish(ctx, requestID, hermes.FailedEvent(sessionID, res.Error))
		return Analysis{Result: res}, nil
	}

	rec := *res.Record
	id, err := p.store.InsertAnalysis(ctx, rec.NameOfEmployee, string(rec.Satisfaction))
	if err != nil {
		p.logger.Error("failed to store analysis", "session_id", sessionID, "error", err)
		return Analysis{Result: res}, fmt.Errorf("store analysis: %w", err)
	}

	p.logger.Info("analysis stored",
		"id", id,
		"session_id", sessionID,
		"satisfaction", rec.Satisfaction,
	)

	p.publish(ctx, requestID, hermes.StoredEvent(sessionID, id, rec))

	if rec.Satisfaction == extractor.SatisfactionBad && p.alerter != nil {
		if _, err := p.alerter.PostAlert(ctx, slack.Alert{
			SessionID:  sessionID,
			AnalysisID: id,
			Record:     rec,
			Exchanges:  len(exchanges),
		}); err != nil {
			p.logger.Error("slack alert failed", "id", id, "error", err)
		}
	}

	return Analysis{ID: id, Result: res}, nil
}

func (p *Processor) publish(ctx context.Context, requestID string, ev hermes.AnalysisEvent) {
	if p.publisher == nil {
		return
	}
	ev.RequestID = requestID
	if err := p.publisher.PublishAnalysis(ctx, ev); err != nil {
		p.logger.Error("failed to publish analysis event", "type", ev.Type, "error", err)
	}
}

func (p *Processor) Analyses(ctx context.Context) ([]store.AnalysisRow, error) {
	return p.store.FetchAnalysis(ctx)
}

// Summary counts stored analyses per rating. Bad, Average and Good are
// always present so charts get a stable set of bars.
type Summary struct {
	Total  int64                     `json:"total"`
	Counts []store.SatisfactionCount `json:"counts"`
}

func (p *Processor) Summary(ctx context.Context) (Summary, error) {
	counts, err := p.store.CountBySatisfaction(ctx)
	if err != nil {
		return Summary{}, err
	}

	byRating := make(map[string]int64, len(counts))
	for _, c := range counts {
		byRating[c.Satisfaction] = c.Count
	}

	var sum Summary
	ratings := []extractor.Satisfaction{extractor.SatisfactionBad, extractor.SatisfactionAverage, extractor.SatisfactionGood}
	for _, r := range ratings {
		n := byRating[string(r)]
		delete(byRating, string(r))
		sum.Counts = append(sum.Counts, store.SatisfactionCount{Satisfaction: string(r), Count: n})
		sum.Total += n
	}
	for _, c := range counts {
		if _, ok := byRating[c.Satisfaction]; ok {
			sum.Counts = append(sum.Counts, c)
			sum.Total += c.Count
		}
	}
	return sum, nil
}

// Sweep analyzes every session that has gained turns since its last
// analysis and returns how many sessions it analyzed.
func (p *Processor) Sweep(ctx context.Context) (int, error) {
	var n int
	for _, id := range p.history.Sessions() {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		sess, ok := p.history.Lookup(id)
		if !ok {
			continue
		}
		turns := sess.Len()
		p.mu.Lock()
		last, seen := p.analyzed[id]
		p.mu.Unlock()
		if turns == 0 || (seen && turns <= last) {
			continue
		}

		if _, err := p.analyzeSession(ctx, sess, ""); err != nil {
			p.logger.Error("sweep analysis failed", "session_id", id, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		p.logger.Info("sweep complete", "analyzed", n)
	}
	return n, nil
}
