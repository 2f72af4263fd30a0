package backfill

import "github.com/MikeSquared-Agency/pulse/internal/history"

// Conversation is one exported conversation ready for analysis.
type Conversation struct {
	Path        string
	Exchanges   []history.Exchange
	Fingerprint string
}

// exportFile is the .json export layout, the same body the analyze
// endpoint accepts.
type exportFile struct {
	Conversation []history.Exchange `json:"conversation"`
}

// turnLine is one line of a .jsonl turn log.
type turnLine struct {
	Role    string `json:"role"`
	Text    string `json:"text"`
	Content string `json:"content"`
}
