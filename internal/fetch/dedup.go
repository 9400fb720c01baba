package fetch

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Func performs one physical external fetch.
type Func func(ctx context.Context) ([]byte, error)

// Deduplicator ensures at most one in-flight external fetch per cache key.
// Concurrent callers for the same key block on the single in-flight call and
// all observe the same result, success or failure. Results are never
// memoized here: once the call returns, the key is forgotten, so failures
// are retried by the next caller and successes are cached by the fetch
// client, not by the deduplicator.
type Deduplicator struct {
	group singleflight.Group
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Do executes fn under key, collapsing concurrent identical calls into one.
// The in-flight table is keyed per cache key, so fetches for unrelated keys
// never contend.
func (d *Deduplicator) Do(ctx context.Context, key string, fn Func) ([]byte, error) {
	value, err, _ := d.group.Do(key, func() (any, error) {
		payload, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}
