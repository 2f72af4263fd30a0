package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const DefaultStatePath = "~/.pulse/backfill-state.json"

// BackfillState tracks progress for resumable backfill runs.
type BackfillState struct {
	StartedAt       time.Time         `json:"started_at"`
	LastProcessedAt time.Time         `json:"last_processed_at"`
	FilesProcessed  []string          `json:"files_processed"`
	Fingerprints    []string          `json:"fingerprints"`
	Analyzed        int               `json:"analyzed"`
	Failed          int               `json:"failed"`
	BySatisfaction  map[string]int    `json:"by_satisfaction"`
	Errors          map[string]string `json:"errors"` // path -> latest error

	path string // not serialized
}

// LoadState loads the backfill state from path, or creates a new one.
func LoadState(path string) (*BackfillState, error) {
	if path == "" {
		path = DefaultStatePath
	}
	p := expandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &BackfillState{
				StartedAt:      time.Now().UTC(),
				BySatisfaction: make(map[string]int),
				Errors:         make(map[string]string),
				path:           p,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s BackfillState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if s.BySatisfaction == nil {
		s.BySatisfaction = make(map[string]int)
	}
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.path = p
	return &s, nil
}

// Save persists the state to disk.
func (s *BackfillState) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

func (s *BackfillState) IsProcessed(path string) bool {
	return slices.Contains(s.FilesProcessed, path)
}

func (s *BackfillState) MarkProcessed(path string) {
	s.FilesProcessed = append(s.FilesProcessed, path)
}

func (s *BackfillState) Seen(fingerprint string) bool {
	return slices.Contains(s.Fingerprints, fingerprint)
}

func (s *BackfillState) MarkSeen(fingerprint string) {
	s.Fingerprints = append(s.Fingerprints, fingerprint)
}

// SetError records the latest error for path, replacing any earlier one.
func (s *BackfillState) SetError(path, msg string) {
	s.Errors[path] = msg
}

func (s *BackfillState) ClearError(path string) {
	delete(s.Errors, path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
