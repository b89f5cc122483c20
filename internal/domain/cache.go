package domain

import "time"

// CacheEntry is a single cached payload with its expiry policy. An expired
// entry is indistinguishable from an absent one to callers.
type CacheEntry struct {
	Value     string
	CreatedAt time.Time
	TTL       time.Duration
}

func (e CacheEntry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL
}
