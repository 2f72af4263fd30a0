package dialogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/llm"
)

// Pipeline runs chat turns against the generation service.
type Pipeline struct {
	llm     llm.Client
	history *history.Store
	params  llm.Params
	logger  *slog.Logger
}

func New(client llm.Client, store *history.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		llm:     client,
		history: store,
		params:  llm.DefaultParams(),
		logger:  logger,
	}
}

// Turn appends humanText to the session, generates a reply from the full
// history and appends the sanitized reply. When generation fails the human
// turn stays in the history without a paired reply and the error wraps the
// *llm.ServiceError.
func (p *Pipeline) Turn(ctx context.Context, humanText, sessionID string) (string, error) {
	sess := p.history.GetOrCreate(sessionID)

	var (
		reply string
		err   error
	)
	sess.Exclusive(func() {
		sess.Append(history.Turn{Role: history.RoleHuman, Text: humanText})
		prompt := RenderPrompt(sess.Turns())

		raw, genErr := p.llm.Generate(ctx, prompt, p.params)
		if genErr != nil {
			p.logger.Error("generation failed", "session_id", sessionID, "error", genErr)
			err = fmt.Errorf("generate reply: %w", genErr)
			return
		}

		reply = Sanitize(raw)
		sess.Append(history.Turn{Role: history.RoleAssistant, Text: reply})
		p.logger.Debug("turn complete",
			"session_id", sessionID,
			"prompt_len", len(prompt),
			"reply_len", len(reply),
		)
	})
	return reply, err
}
