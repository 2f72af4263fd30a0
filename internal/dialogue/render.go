package dialogue

import (
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/pulse/internal/history"
)

const (
	labelSystem    = "System"
	labelHuman     = "Human"
	labelAssistant = "Assistant"
)

// RenderPrompt renders the system instruction followed by the turns as
// role-tagged lines, ending with an open assistant line for the model to fill.
func RenderPrompt(turns []history.Turn) string {
	var sb strings.Builder
	sb.WriteString(labelSystem + ": " + systemInstruction + "\n")
	for _, t := range turns {
		label := labelHuman
		if t.Role == history.RoleAssistant {
			label = labelAssistant
		}
		sb.WriteString(label + ": " + t.Text + "\n")
	}
	sb.WriteString(labelAssistant + ":")
	return sb.String()
}

var (
	leadingLabel = regexp.MustCompile(`(?i)^\s*(?:assistant|ai|human)\s*:\s*`)
	humanLine    = regexp.MustCompile(`(?im)^\s*human\s*:`)
)

// Sanitize removes role labels the model echoes at the start of its reply
// and drops anything from a later line where it starts writing as the user.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		loc := leadingLabel.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}
	if loc := humanLine.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}
