package backfill

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/MikeSquared-Agency/pulse/internal/history"
)

// Fingerprint identifies a conversation by its content so the same
// conversation exported twice is analyzed once. Whitespace and case are
// ignored.
func Fingerprint(exchanges []history.Exchange) string {
	h := sha256.New()
	for _, ex := range exchanges {
		h.Write([]byte(normalizeText(ex.Human)))
		h.Write([]byte{0})
		h.Write([]byte(normalizeText(ex.Assistant)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
