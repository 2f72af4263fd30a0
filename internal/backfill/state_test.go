package backfill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillState_NewAndReload(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := LoadState(statePath)
	require.NoError(t, err)
	assert.Empty(t, s.FilesProcessed)
	assert.False(t, s.StartedAt.IsZero())

	s.MarkProcessed("file1.json")
	s.MarkSeen("abc")
	s.Analyzed = 2
	s.BySatisfaction["Good"] = 2
	s.SetError("broken.json", "parse: boom")
	s.SetError("broken.json", "parse: boom again")
	s.SetError("gone.json", "store: down")
	s.ClearError("gone.json")
	require.NoError(t, s.Save())

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	reloaded, err := LoadState(statePath)
	require.NoError(t, err)
	assert.True(t, reloaded.IsProcessed("file1.json"))
	assert.False(t, reloaded.IsProcessed("file2.json"))
	assert.True(t, reloaded.Seen("abc"))
	assert.Equal(t, 2, reloaded.Analyzed)
	assert.Equal(t, 2, reloaded.BySatisfaction["Good"])
	assert.Equal(t, map[string]string{"broken.json": "parse: boom again"}, reloaded.Errors)
	assert.False(t, reloaded.LastProcessedAt.IsZero())
}

func TestLoadState_Corrupt(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{"), 0o644))

	_, err := LoadState(statePath)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, "x", "y"), expandHome("~/x/y"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
