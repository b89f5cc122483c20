// Package filecache stores cache entries on disk, one directory per
// namespace and one TOML record per key. A record that cannot be read or
// decoded counts as a miss for that key only and is removed; the rest of the
// namespace is unaffected.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

const (
	storeDirMode  = 0o700
	entryFileMode = 0o600
	entryExt      = ".cache"
)

type entrySchema struct {
	Value      string `toml:"value"`
	CreatedAt  string `toml:"created_at"`
	TTLSeconds int64  `toml:"ttl_seconds"`
}

type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CacheRepository = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Get(ctx context.Context, namespace, key string) (domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.CacheEntry{}, err
	}

	path := s.pathFor(namespace, key)

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CacheEntry{}, domain.ErrCacheMiss
		}
		s.removeQuietly(path)
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}

	var record entrySchema
	if err := toml.Unmarshal(data, &record); err != nil {
		// Corrupt record: drop it and report a plain miss.
		s.removeQuietly(path)
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}

	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		s.removeQuietly(path)
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}

	return domain.CacheEntry{
		Value:     record.Value,
		CreatedAt: createdAt,
		TTL:       time.Duration(record.TTLSeconds) * time.Second,
	}, nil
}

func (s *Store) Put(ctx context.Context, namespace, key string, entry domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.pathFor(namespace, key)

	data, err := toml.Marshal(entrySchema{
		Value:      entry.Value,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339Nano),
		TTLSeconds: int64(entry.TTL / time.Second),
	})
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: fmt.Errorf("encode cache entry: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return &domain.PersistenceError{Path: path, Err: fmt.Errorf("create cache namespace: %w", err)}
	}
	if err := os.WriteFile(path, data, entryFileMode); err != nil {
		return &domain.PersistenceError{Path: path, Err: fmt.Errorf("write cache entry: %w", err)}
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(namespace, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.PersistenceError{Path: s.pathFor(namespace, key), Err: err}
	}
	return nil
}

func (s *Store) Purge(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, sanitize(namespace))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &domain.PersistenceError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entryExt) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return &domain.PersistenceError{Path: filepath.Join(dir, entry.Name()), Err: err}
		}
	}
	return nil
}

func (s *Store) pathFor(namespace, key string) string {
	return filepath.Join(s.root, sanitize(namespace), entryFileName(key))
}

// entryFileName keeps the file readable via the sanitized key and distinct
// via a short hash of the raw key, so keys that differ only in characters
// sanitizing collapses do not share a file.
func entryFileName(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%s-%08x%s", sanitize(key), h.Sum32(), entryExt)
}

func (s *Store) removeQuietly(path string) {
	s.mu.Lock()
	_ = os.Remove(path)
	s.mu.Unlock()
}

// sanitize keeps cache keys usable as filenames.
func sanitize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
