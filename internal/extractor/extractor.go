package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/pulse/internal/history"
	"github.com/MikeSquared-Agency/pulse/internal/llm"
)

// Extractor classifies conversations into satisfaction records.
type Extractor struct {
	llm    llm.Client
	params llm.Params
	logger *slog.Logger
}

func New(client llm.Client, logger *slog.Logger) *Extractor {
	return &Extractor{llm: client, params: llm.DefaultParams(), logger: logger}
}

// RenderTranscript renders exchanges as "Human: <h> Assistant: <a>" lines.
func RenderTranscript(exchanges []history.Exchange) string {
	lines := make([]string, len(exchanges))
	for i, ex := range exchanges {
		lines[i] = fmt.Sprintf("Human: %s Assistant: %s", ex.Human, ex.Assistant)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt embeds the transcript into the classification template.
func BuildPrompt(exchanges []history.Exchange) string {
	return fmt.Sprintf(analysisPrompt, RenderTranscript(exchanges))
}

// Analyze classifies the conversation. It never returns a Go error: service
// failures, empty replies and malformed output all come back as
// Result.Error. An empty conversation is rejected without calling the model.
func (e *Extractor) Analyze(ctx context.Context, exchanges []history.Exchange) Result {
	if len(exchanges) == 0 {
		return failure(KindEmptyConversation, "no conversation to analyze", nil, nil)
	}

	prompt := BuildPrompt(exchanges)

	e.logger.Info("analyzing conversation",
		"exchanges", len(exchanges),
		"prompt_len", len(prompt),
	)

	raw, err := e.llm.Generate(ctx, prompt, e.params)
	if err != nil {
		e.logger.Error("analysis generation failed", "error", err)
		return failure(KindService, "failed to analyze conversation", nil, err)
	}

	e.logger.Debug("raw analysis response", "raw", raw)

	res := ParseRecord(raw)
	if res.Error != nil {
		e.logger.Error("failed to parse analysis response",
			"kind", res.Error.Kind,
			"error", res.Error.Error(),
			"raw", raw,
		)
		return res
	}

	e.logger.Info("analysis complete",
		"name_of_employee", res.Record.NameOfEmployee,
		"satisfaction", res.Record.Satisfaction,
	)
	return res
}
