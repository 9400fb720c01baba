package cache

import (
	"context"
	"time"
)

// DefaultTTL is the default lifetime for externally fetched data.
// Individual sources may override it via configuration.
const DefaultTTL = 24 * time.Hour

// Entry is a single cached value with expiry metadata.
// Invariant: ExpiresAt >= CreatedAt. An entry is live iff now < ExpiresAt.
type Entry struct {
	Key       string
	Source    string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the entry is still valid at the given instant.
func (e Entry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Stats holds cache hit/miss counters observed since the store was created.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
	Swept   int64 `json:"swept"`
}

// HitRatio returns hits / (hits + misses), or 0 when the store is untouched.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store is the key/value cache contract consumed by the fetch layer.
//
// Get on an entry whose expiry has passed behaves identically to a miss;
// lazy expiry is sufficient and SweepExpired is an optimization only.
// Implementations must be safe for concurrent use by every stage in a
// pipeline level, with per-key (or per-shard) locking so unrelated keys
// never contend.
type Store interface {
	// Get returns the cached value for key and whether it was a live hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given ttl. The source tag is kept
	// for observability and targeted invalidation.
	Set(ctx context.Context, key, source string, value []byte, ttl time.Duration) error

	// Invalidate removes a single entry. Removing a missing key is not an error.
	Invalidate(ctx context.Context, key string) error

	// SweepExpired removes every expired entry and returns the count removed.
	SweepExpired(ctx context.Context) (int, error)

	// ClearAll truncates the store. Safe to call concurrently with a running
	// pipeline: in-flight fetches simply repopulate the cache.
	ClearAll(ctx context.Context) error

	// Stats returns hit/miss counters for observability.
	Stats() Stats
}
