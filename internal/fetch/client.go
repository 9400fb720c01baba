package fetch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/cache"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// ErrOffline is returned for every fetch while the client is in offline mode.
var ErrOffline = types.NewError(types.FETCH_OFFLINE, "external fetches are disabled")

// Source performs one raw external call for a named source. An empty payload
// with a nil error is a valid "no results" answer; failures are reported via
// the error, never conflated with empty results.
type Source interface {
	Name() string
	Fetch(ctx context.Context, params map[string]string) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context, params map[string]string) ([]byte, error)
}

// Name returns the source name used in cache keys and TTL lookup.
func (s SourceFunc) Name() string { return s.SourceName }

// Fetch invokes the wrapped function.
func (s SourceFunc) Fetch(ctx context.Context, params map[string]string) ([]byte, error) {
	return s.Fn(ctx, params)
}

// Client is the uniform fetch capability handed to data collection stages.
// Every call goes cache → deduplicator → rate limiter → source with retries.
// Successful payloads are cached with the source's TTL; failures are never
// cached and propagate to every deduplicated waiter.
type Client struct {
	store   cache.Store
	dedup   *Deduplicator
	policy  RetryPolicy
	limiter *rate.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer

	defaultTTL time.Duration
	sourceTTLs map[string]time.Duration

	offline atomic.Bool
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithRateLimit bounds the rate of physical external calls across all sources.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger configures the client to use the specified structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer configures the client to emit a span per physical fetch.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithDefaultTTL overrides the default cache TTL for fetched payloads.
func WithDefaultTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithSourceTTL sets a per-source cache TTL (e.g. weather data expires after
// 6 hours while place data lives the full 24).
func WithSourceTTL(source string, ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.sourceTTLs[source] = ttl
		}
	}
}

// WithOffline starts the client in offline mode.
func WithOffline(offline bool) ClientOption {
	return func(c *Client) {
		c.offline.Store(offline)
	}
}

// NewClient creates a fetch client over the given cache store.
func NewClient(store cache.Store, opts ...ClientOption) *Client {
	c := &Client{
		store:      store,
		dedup:      NewDeduplicator(),
		policy:     DefaultRetryPolicy(),
		logger:     slog.Default(),
		defaultTTL: cache.DefaultTTL,
		sourceTTLs: make(map[string]time.Duration),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetOffline toggles offline mode at runtime. While offline, every fetch
// returns ErrOffline and stages fall back to locally persisted data.
func (c *Client) SetOffline(offline bool) {
	c.offline.Store(offline)
}

// Offline reports whether the client is in offline mode.
func (c *Client) Offline() bool {
	return c.offline.Load()
}

// Stats returns the underlying cache store's hit/miss counters.
func (c *Client) Stats() cache.Stats {
	return c.store.Stats()
}

// Get fetches the payload for source/params, serving from cache when a live
// entry exists. On a miss, concurrent identical requests share one physical
// call through the deduplicator.
func (c *Client) Get(ctx context.Context, source Source, params map[string]string) ([]byte, error) {
	key := cache.Key(source.Name(), params)

	if payload, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "cache read failed, falling through to fetch",
			"source", source.Name(),
			"error", err,
		)
	} else if ok {
		return payload, nil
	}

	if c.offline.Load() {
		return nil, ErrOffline
	}

	payload, err := c.dedup.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetchWithRetry(ctx, source, params)
	})
	if err != nil {
		return nil, err
	}

	// Cache only successful results. A failed Set degrades future hit ratio
	// but never the current response.
	if err := c.store.Set(ctx, key, source.Name(), payload, c.ttlFor(source.Name())); err != nil {
		c.logger.WarnContext(ctx, "failed to cache fetched payload",
			"source", source.Name(),
			"error", err,
		)
	}

	return payload, nil
}

// Invalidate purges the cached entry for source/params.
func (c *Client) Invalidate(ctx context.Context, source Source, params map[string]string) error {
	return c.store.Invalidate(ctx, cache.Key(source.Name(), params))
}

func (c *Client) ttlFor(source string) time.Duration {
	if ttl, ok := c.sourceTTLs[source]; ok {
		return ttl
	}
	return c.defaultTTL
}

// fetchWithRetry performs the physical call with the configured retry policy.
// Attempts stop early on context cancellation or a non-retryable error.
func (c *Client) fetchWithRetry(ctx context.Context, source Source, params map[string]string) ([]byte, error) {
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "fetch."+source.Name(),
			trace.WithAttributes(
				attribute.String("fetch.source", source.Name()),
				attribute.Int("fetch.max_attempts", c.policy.MaxAttempts),
			),
		)
		defer span.End()
	}

	attempts := c.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.policy.CalculateDelay(attempt - 1)
			c.logger.DebugContext(ctx, "retrying external fetch",
				"source", source.Name(),
				"attempt", attempt+1,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, types.WrapError(types.FETCH_TIMEOUT, "fetch cancelled during backoff", ctx.Err())
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, types.WrapError(types.FETCH_RATE_LIMITED, "rate limiter wait aborted", err)
			}
		}

		payload, err := source.Fetch(ctx, params)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, types.WrapError(types.FETCH_TIMEOUT, "fetch cancelled", ctx.Err())
		}
		if !types.IsRetryable(err) && types.CodeOf(err) != "" {
			break
		}
	}

	return nil, types.WrapError(types.FETCH_FAILED,
		"source "+source.Name()+" unavailable after retries", lastErr)
}
