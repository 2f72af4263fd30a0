package backfill

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/pulse/internal/history"
)

// ErrIncomplete reports a JSONL export whose last line does not decode.
var ErrIncomplete = errors.New("incomplete export")

// ParseFile reads an exported conversation. ".json" files hold either
// {"conversation": [{"Human", "Assistant"}...]} or a bare exchange array;
// ".jsonl" files hold one {"role", "text"} turn per line. Either may be
// compressed with a trailing ".zst" or ".gz".
func ParseFile(path string) ([]history.Exchange, error) {
	format, compression := fileKind(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported file type %q", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r, err := decompress(f, compression)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if format == ".json" {
		return parseJSON(r)
	}
	return parseJSONL(r)
}

// fileKind splits "x.jsonl.zst" into (".jsonl", ".zst"). format is empty
// for files ParseFile cannot read.
func fileKind(path string) (format, compression string) {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	if ext == ".zst" || ext == ".gz" {
		compression = ext
		ext = filepath.Ext(strings.TrimSuffix(name, ext))
	}
	switch ext {
	case ".json", ".jsonl":
		return ext, compression
	default:
		return "", ""
	}
}

func parseJSON(r io.Reader) ([]history.Exchange, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var exchanges []history.Exchange
		if err := json.Unmarshal(data, &exchanges); err != nil {
			return nil, fmt.Errorf("parse exchanges: %w", err)
		}
		return exchanges, nil
	}

	var f exportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return f.Conversation, nil
}

// parseJSONL skips lines it cannot decode, except the last one: a broken
// final line usually means the export is still being written.
func parseJSONL(r io.Reader) ([]history.Exchange, error) {
	var (
		turns   []history.Turn
		lineNo  int
		tailErr error
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line turnLine
		if err := json.Unmarshal(raw, &line); err != nil {
			tailErr = fmt.Errorf("line %d: %w", lineNo, err)
			continue
		}
		tailErr = nil

		text := strings.TrimSpace(line.Text)
		if text == "" {
			text = strings.TrimSpace(line.Content)
		}
		if text == "" {
			continue
		}

		role, ok := normalizeRole(line.Role)
		if !ok {
			continue
		}
		turns = append(turns, history.Turn{Role: role, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if tailErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, tailErr)
	}

	return history.Exchanges(turns), nil
}

func normalizeRole(role string) (history.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "human", "user":
		return history.RoleHuman, true
	case "assistant", "ai", "bot":
		return history.RoleAssistant, true
	default:
		return "", false
	}
}
