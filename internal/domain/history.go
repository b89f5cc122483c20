package domain

import "time"

// HistoryEntry is one previously entered command. The log is append-only
// apart from bounded eviction from the front.
type HistoryEntry struct {
	Text      string
	Timestamp time.Time
	SessionID SessionID
}
