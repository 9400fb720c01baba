package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("geocoding", map[string]string{"city": "hanoi", "days": "5"})
	b := Key("geocoding", map[string]string{"days": "5", "city": "hanoi"})
	assert.Equal(t, a, b, "key must not depend on map iteration order")

	c := Key("geocoding", map[string]string{"city": "da nang", "days": "5"})
	assert.NotEqual(t, a, c)

	d := Key("weather", map[string]string{"city": "hanoi", "days": "5"})
	assert.NotEqual(t, a, d, "different sources must produce different keys")
}

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)

	require.NoError(t, store.Set(ctx, "k1", "geocoding", []byte("payload"), time.Hour))

	value, ok, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	store := NewMemoryStore(WithClock(clock))
	require.NoError(t, store.Set(ctx, "k1", "weather", []byte("v"), 6*time.Hour))

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok, "entry must be live before its ttl elapses")

	advance(6 * time.Hour)

	_, ok, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok, "expired get must behave identically to a miss")
}

func TestMemoryStoreInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k1", "s", []byte("a"), time.Hour))
	require.NoError(t, store.Set(ctx, "k2", "s", []byte("b"), time.Hour))

	require.NoError(t, store.Invalidate(ctx, "k1"))
	_, ok, _ := store.Get(ctx, "k1")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "k2")
	assert.True(t, ok)

	// Invalidating a missing key is not an error.
	require.NoError(t, store.Invalidate(ctx, "never-existed"))

	require.NoError(t, store.ClearAll(ctx))
	_, ok, _ = store.Get(ctx, "k2")
	assert.False(t, ok)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	var mu sync.Mutex
	store := NewMemoryStore(WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}))

	require.NoError(t, store.Set(ctx, "short", "s", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", "s", []byte("b"), time.Hour))

	mu.Lock()
	now = now.Add(30 * time.Minute)
	mu.Unlock()

	removed, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := store.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k1", "s", []byte("a"), time.Hour))

	store.Get(ctx, "k1")      // hit
	store.Get(ctx, "k1")      // hit
	store.Get(ctx, "missing") // miss

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio(), 1e-9)

	assert.Zero(t, Stats{}.HitRatio())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%8)
			for j := 0; j < 100; j++ {
				_ = store.Set(ctx, key, "s", []byte("v"), time.Hour)
				_, _, _ = store.Get(ctx, key)
				if j%10 == 0 {
					_ = store.Invalidate(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestEntryLive(t *testing.T) {
	now := time.Now()
	entry := Entry{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	assert.True(t, entry.Live(now))
	assert.True(t, entry.Live(now.Add(59*time.Minute)))
	assert.False(t, entry.Live(now.Add(time.Hour)), "entry is live iff now < expiry")
}
