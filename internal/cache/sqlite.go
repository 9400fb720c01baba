package cache

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// SQLiteStore is the durable cache tier backed by the ephemeral cache
// database. It survives process restarts but lives in a separate database
// file from the persistent store, so truncating it never touches durable
// records.
type SQLiteStore struct {
	db  *database.DB
	now func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	swept  atomic.Int64
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the store's time source for tests.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// NewSQLiteStore creates a cache store over an opened cache database.
func NewSQLiteStore(db *database.DB, opts ...SQLiteOption) *SQLiteStore {
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live value for key. Expired rows are treated as misses;
// they are removed by SweepExpired rather than inline, keeping the read path
// a single indexed query.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM api_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.WrapError(types.CACHE_READ_FAILED, "cache lookup failed", err)
	}

	// Hit accounting is best effort; a lost update does not affect correctness.
	_, _ = s.db.ExecContext(ctx,
		`UPDATE api_cache SET hit_count = hit_count + 1 WHERE cache_key = ?`, key)

	s.hits.Add(1)
	return payload, true, nil
}

// Set stores value under key, replacing any previous entry for the key.
func (s *SQLiteStore) Set(ctx context.Context, key, source string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO api_cache (cache_key, source, payload, created_at, expires_at, hit_count)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		key, source, value, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return types.WrapError(types.CACHE_WRITE_FAILED, "cache insert failed", err)
	}
	return nil
}

// Invalidate removes a single entry.
func (s *SQLiteStore) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE cache_key = ?`, key); err != nil {
		return types.WrapError(types.CACHE_WRITE_FAILED, "cache invalidate failed", err)
	}
	return nil
}

// SweepExpired removes every expired row and returns the count removed.
func (s *SQLiteStore) SweepExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, types.WrapError(types.CACHE_WRITE_FAILED, "cache sweep failed", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, types.WrapError(types.CACHE_WRITE_FAILED, "cache sweep count failed", err)
	}

	s.swept.Add(removed)
	return int(removed), nil
}

// ClearAll truncates the cache table. Durable records live in a different
// database file and are unaffected.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM api_cache`); err != nil {
		return types.WrapError(types.CACHE_WRITE_FAILED, "cache clear failed", err)
	}
	return nil
}

// Stats returns hit/miss counters observed by this store instance.
func (s *SQLiteStore) Stats() Stats {
	var entries int
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM api_cache`).Scan(&entries)

	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: entries,
		Swept:   s.swept.Load(),
	}
}
