package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bandit-cli/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "history.json"))
	entries := []domain.HistoryEntry{
		{Text: "ls", Timestamp: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), SessionID: "sess-1"},
		{Text: "cat readme", Timestamp: time.Date(2026, 8, 20, 9, 1, 0, 0, time.UTC), SessionID: "sess-1"},
	}

	require.NoError(t, store.Save(context.Background(), entries))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ls", got[0].Text)
	assert.Equal(t, domain.SessionID("sess-1"), got[0].SessionID)
	assert.True(t, entries[0].Timestamp.Equal(got[0].Timestamp))
}

func TestStoreMissingFileLoadsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "none", "history.json"))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreCorruptFileReportsCorruptData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{{not json"), 0o600))

	store := NewStore(path)
	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptData)
}

func TestStoreSaveEmptyListTruncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	store := NewStore(path)

	require.NoError(t, store.Save(context.Background(), []domain.HistoryEntry{{Text: "ls"}}))
	require.NoError(t, store.Save(context.Background(), nil))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreAtomicWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "history.json"))
	require.NoError(t, store.Save(context.Background(), []domain.HistoryEntry{{Text: "ls"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "leftover temp file %s", entry.Name())
	}
}
