// Package history keeps the persisted, deduplicated log of previously
// entered commands, independent of any particular remote session.
package history

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

const DefaultCapacity = 100

// Log is a capacity-bounded command log with adjacency dedup: a new entry is
// suppressed only when it equals the immediately preceding one. Eviction is
// oldest-first. Writes go to the repository on a dedicated goroutine so
// appends never block on disk, while per-file ordering is preserved.
type Log struct {
	mu       sync.Mutex
	entries  []domain.HistoryEntry
	capacity int
	cursor   int
	session  domain.SessionID
	loadErr  error

	repo   ports.HistoryRepository
	clock  ports.Clock
	logger *zap.Logger

	wmu    sync.Mutex
	closed bool
	writes chan []domain.HistoryEntry
	done   chan struct{}
}

func NewLog(ctx context.Context, repo ports.HistoryRepository, capacity int, clock ports.Clock, logger *zap.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	log := &Log{
		capacity: capacity,
		repo:     repo,
		clock:    clock,
		logger:   logger,
		writes:   make(chan []domain.HistoryEntry, 64),
		done:     make(chan struct{}),
	}

	entries, err := repo.Load(ctx)
	if err != nil {
		// Corrupt or unreadable history degrades to an empty log.
		log.loadErr = err
		logger.Warn("command history unreadable, starting empty", zap.Error(err))
		entries = nil
	}
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	log.entries = entries
	log.cursor = len(entries)

	go log.persistLoop()
	return log
}

// LoadErr reports the degradation that happened at load time, if any.
func (l *Log) LoadErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadErr
}

// SetSession marks which session id new entries are attributed to.
func (l *Log) SetSession(id domain.SessionID) {
	l.mu.Lock()
	l.session = id
	l.mu.Unlock()
}

// Append records a command. Whitespace is trimmed; empty text and text equal
// to the previous entry are dropped. Appending resets the navigation cursor.
func (l *Log) Append(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	l.mu.Lock()
	if n := len(l.entries); n > 0 && l.entries[n-1].Text == trimmed {
		l.cursor = len(l.entries)
		l.mu.Unlock()
		return
	}

	l.entries = append(l.entries, domain.HistoryEntry{
		Text:      trimmed,
		Timestamp: l.clock.Now(),
		SessionID: l.session,
	})
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	l.cursor = len(l.entries)
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.enqueue(snapshot)
}

// Previous moves the cursor one step toward older entries, clamped at the
// oldest. The second return is false only when the log is empty.
func (l *Log) Previous() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return "", false
	}
	if l.cursor > 0 {
		l.cursor--
	}
	return l.entries[l.cursor].Text, true
}

// Next moves the cursor one step toward newer entries. Once past the newest
// entry it lands on "no selection" and returns false, meaning the input line
// should be cleared.
func (l *Log) Next() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 || l.cursor >= len(l.entries) {
		return "", false
	}
	l.cursor++
	if l.cursor == len(l.entries) {
		return "", false
	}
	return l.entries[l.cursor].Text, true
}

// ResetCursor abandons the current navigation session.
func (l *Log) ResetCursor() {
	l.mu.Lock()
	l.cursor = len(l.entries)
	l.mu.Unlock()
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []domain.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the log and persists the empty state.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.cursor = 0
	l.mu.Unlock()

	l.enqueue(nil)
}

// Close flushes queued writes and stops the persist goroutine.
func (l *Log) Close() {
	l.wmu.Lock()
	if l.closed {
		l.wmu.Unlock()
		return
	}
	l.closed = true
	close(l.writes)
	l.wmu.Unlock()
	<-l.done
}

func (l *Log) snapshotLocked() []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) enqueue(snapshot []domain.HistoryEntry) {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if l.closed {
		return
	}
	// Holding wmu across the send keeps snapshots applied in append order.
	l.writes <- snapshot
}

func (l *Log) persistLoop() {
	defer close(l.done)
	for snapshot := range l.writes {
		if err := l.repo.Save(context.Background(), snapshot); err != nil {
			// In-memory state stays authoritative for this run.
			l.logger.Warn("persist command history", zap.Error(err))
		}
	}
}
