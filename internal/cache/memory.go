package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

const memoryShards = 16

// memoryShard holds a slice of the key space behind its own lock so
// unrelated keys never contend.
type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// MemoryStore is an in-process Store implementation. It is the hot tier in
// front of the SQLite-backed cache and the fake store used in tests.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
	now    func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	swept  atomic.Int64
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's time source. Tests use this to advance
// time past entry expiry without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]Entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

// Get returns the live value for key. An expired entry is treated as a miss
// and removed lazily.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	shard := s.shard(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		s.misses.Add(1)
		return nil, false, nil
	}

	if !entry.Live(s.now()) {
		shard.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, ok := shard.entries[key]; ok && !current.Live(s.now()) {
			delete(shard.entries, key)
		}
		shard.mu.Unlock()
		s.misses.Add(1)
		return nil, false, nil
	}

	s.hits.Add(1)
	return entry.Value, true, nil
}

// Set stores value under key with the given ttl.
func (s *MemoryStore) Set(ctx context.Context, key, source string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()

	shard := s.shard(key)
	shard.mu.Lock()
	shard.entries[key] = Entry{
		Key:       key,
		Source:    source,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	shard.mu.Unlock()
	return nil
}

// Invalidate removes a single entry.
func (s *MemoryStore) Invalidate(ctx context.Context, key string) error {
	shard := s.shard(key)
	shard.mu.Lock()
	delete(shard.entries, key)
	shard.mu.Unlock()
	return nil
}

// SweepExpired removes every expired entry and returns the count removed.
func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			if !entry.Live(now) {
				delete(shard.entries, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	s.swept.Add(int64(removed))
	return removed, nil
}

// ClearAll truncates the store.
func (s *MemoryStore) ClearAll(ctx context.Context) error {
	for _, shard := range s.shards {
		shard.mu.Lock()
		shard.entries = make(map[string]Entry)
		shard.mu.Unlock()
	}
	return nil
}

// Stats returns hit/miss counters.
func (s *MemoryStore) Stats() Stats {
	entries := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		entries += len(shard.entries)
		shard.mu.RUnlock()
	}
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: entries,
		Swept:   s.swept.Load(),
	}
}
