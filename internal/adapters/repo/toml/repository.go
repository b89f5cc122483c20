// Package toml persists session descriptors as a single TOML file written
// with atomic replace, so a crash mid-write never leaves a half-written
// store.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

const (
	sessionsPathKey  = "sessions.path"
	sessionsFileMode = 0o600
	sessionsDirMode  = 0o700
	sessionsDir      = ".bandit-cli"
	sessionsFile     = "sessions.toml"
	tempFilePattern  = ".sessions-*.toml.tmp"
)

type Repository struct {
	sessionsPath string
	mu           *sync.RWMutex

	corruptMu sync.Mutex
	corrupt   error
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetDefault(sessionsPathKey, filepath.Join(homeDir, sessionsDir, sessionsFile))

	sessionsPath := cfg.GetString(sessionsPathKey)
	if sessionsPath == "" {
		return nil, errors.New("sessions path is empty")
	}
	sessionsPath, err = normalizeSessionsPath(sessionsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{sessionsPath: sessionsPath, mu: lockForPath(sessionsPath)}, nil
}

// Corrupt reports the degradation recorded on the last unreadable load, if
// any. The store itself behaves as empty in that case.
func (r *Repository) Corrupt() error {
	r.corruptMu.Lock()
	defer r.corruptMu.Unlock()
	return r.corrupt
}

func (r *Repository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := r.readSchema()
	file.applyDefaults()

	encoded := toSchema(session)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].ID == encoded.ID {
			file.Sessions[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file := r.readSchema()
	for _, entry := range file.Sessions {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Session{}, domain.ErrSessionNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file := r.readSchema()
	sessions := make([]domain.Session, 0, len(file.Sessions))
	for _, entry := range file.Sessions {
		sessions = append(sessions, fromSchema(entry))
	}

	return sessions, nil
}

func (r *Repository) Delete(ctx context.Context, id domain.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := r.readSchema()
	kept := file.Sessions[:0]
	found := false
	for _, entry := range file.Sessions {
		if entry.ID == string(id) {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrSessionNotFound
	}
	file.Sessions = kept

	return r.writeSchema(file)
}

// readSchema never fails: a missing file is an empty store, and a corrupt
// one degrades to empty with the error recorded for reporting.
func (r *Repository) readSchema() fileSchema {
	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.recordCorrupt(&domain.PersistenceError{Path: r.sessionsPath, Err: err})
		}
		return fileSchema{}
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		r.recordCorrupt(&domain.PersistenceError{
			Path: r.sessionsPath,
			Err:  fmt.Errorf("%w: %v", domain.ErrCorruptData, err),
		})
		return fileSchema{}
	}
	if err := file.validateVersion(); err != nil {
		r.recordCorrupt(&domain.PersistenceError{Path: r.sessionsPath, Err: err})
		return fileSchema{}
	}
	file.applyDefaults()

	return file
}

func (r *Repository) recordCorrupt(err error) {
	r.corruptMu.Lock()
	r.corrupt = err
	r.corruptMu.Unlock()
}

func normalizeSessionsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.sessionsPath), sessionsDirMode); err != nil {
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("create sessions directory: %w", err)}
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("encode sessions file: %w", err)}
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.sessionsPath), tempFilePattern)
	if err != nil {
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("create temp sessions file: %w", err)}
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
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("write temp sessions file: %w", err)}
	}

	if err := tempFile.Chmod(sessionsFileMode); err != nil {
		_ = tempFile.Close()
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("chmod temp sessions file: %w", err)}
	}

	if err := tempFile.Close(); err != nil {
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("close temp sessions file: %w", err)}
	}

	if err := os.Rename(tempName, r.sessionsPath); err != nil {
		return &domain.PersistenceError{Path: r.sessionsPath, Err: fmt.Errorf("replace sessions file: %w", err)}
	}

	cleanup = false

	return nil
}

func toSchema(session domain.Session) sessionSchema {
	return sessionSchema{
		ID:         string(session.ID),
		Name:       session.Name,
		Hostname:   session.Hostname,
		Port:       session.Port,
		Username:   session.Username,
		Level:      session.Level,
		CreatedAt:  formatTime(session.CreatedAt),
		LastUsedAt: formatTime(session.LastUsedAt),
		Metadata:   session.Metadata,
	}
}

func fromSchema(entry sessionSchema) domain.Session {
	return domain.Session{
		ID:         domain.SessionID(entry.ID),
		Name:       entry.Name,
		Hostname:   entry.Hostname,
		Port:       entry.Port,
		Username:   entry.Username,
		Level:      entry.Level,
		CreatedAt:  parseTime(entry.CreatedAt),
		LastUsedAt: parseTime(entry.LastUsedAt),
		Metadata:   entry.Metadata,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
