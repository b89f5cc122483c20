// Package file persists the command history as a single JSON file, replaced
// atomically on every save.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

const (
	historyFileMode = 0o600
	historyDirMode  = 0o700
	tempFilePattern = ".history-*.json.tmp"
)

type entrySchema struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

var _ ports.HistoryRepository = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

func (s *Store) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.PersistenceError{Path: s.path, Err: err}
	}

	var records []entrySchema
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &domain.PersistenceError{
			Path: s.path,
			Err:  fmt.Errorf("%w: %v", domain.ErrCorruptData, err),
		}
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, domain.HistoryEntry{
			Text:      record.Text,
			Timestamp: record.Timestamp,
			SessionID: domain.SessionID(record.SessionID),
		})
	}
	return entries, nil
}

func (s *Store) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]entrySchema, 0, len(entries))
	for _, entry := range entries {
		records = append(records, entrySchema{
			Text:      entry.Text,
			Timestamp: entry.Timestamp,
			SessionID: string(entry.SessionID),
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("encode history: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), historyDirMode); err != nil {
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("create history directory: %w", err)}
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("create temp history file: %w", err)}
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("write temp history file: %w", err)}
	}
	if err := tempFile.Chmod(historyFileMode); err != nil {
		_ = tempFile.Close()
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("chmod temp history file: %w", err)}
	}
	if err := tempFile.Close(); err != nil {
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("close temp history file: %w", err)}
	}
	if err := os.Rename(tempName, s.path); err != nil {
		return &domain.PersistenceError{Path: s.path, Err: fmt.Errorf("replace history file: %w", err)}
	}

	cleanup = false
	return nil
}
