// Package cache is a TTL result cache with positive and negative entries over a pluggable store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/metrics"

	"github.com/rs/zerolog"
)

// Entry is a cached value or a cached typed failure.
type Entry struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value,omitempty"`
	ErrKind    apperr.Kind     `json:"err_kind,omitempty"`
	ErrMessage string          `json:"err_message,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	TTL        time.Duration   `json:"ttl"`
}

// Expired reports whether the entry is past its TTL at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// Negative reports whether the entry records a failure.
func (e *Entry) Negative() bool {
	return e.ErrKind != ""
}

// Store persists entries. Get returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
}

// Cache wraps a Store with lazy expiry. It does not de-duplicate concurrent misses.
type Cache struct {
	store       Store
	negativeTTL time.Duration
	now         func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for entry creation and expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache. Typed failures are kept for negativeTTL; zero disables negative caching.
func New(store Store, negativeTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{store: store, negativeTTL: negativeTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the live cached value for key, or runs compute and caches its outcome.
// Successful values are kept for ttl. Failures of type *apperr.Error are cached for the
// cache's negative TTL and replayed as *apperr.Error on later reads. Any other failure,
// including context cancellation, is returned without being cached.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	logger := zerolog.Ctx(ctx).With().Str("cache_key", key).Logger()

	entry, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Msg("cache read failed, computing")
	case entry == nil:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	case entry.Expired(c.now()):
		metrics.CacheLookupsTotal.WithLabelValues("expired").Inc()
	case entry.Negative():
		metrics.CacheLookupsTotal.WithLabelValues("negative_hit").Inc()
		return zero, &apperr.Error{Kind: entry.ErrKind, Message: entry.ErrMessage}
	default:
		var v T
		if err := json.Unmarshal(entry.Value, &v); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return v, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		logger.Warn().Msg("cache entry undecodable, computing")
	}

	v, err := compute(ctx)
	if err != nil {
		var typed *apperr.Error
		if c.negativeTTL > 0 && errors.As(err, &typed) && ctx.Err() == nil {
			c.put(ctx, logger, &Entry{
				Key:        key,
				ErrKind:    typed.Kind,
				ErrMessage: typed.Message,
				CreatedAt:  c.now(),
				TTL:        c.negativeTTL,
			})
		}
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("cache: failed to encode value for %s: %w", key, err)
	}
	c.put(ctx, logger, &Entry{Key: key, Value: raw, CreatedAt: c.now(), TTL: ttl})
	return v, nil
}

func (c *Cache) put(ctx context.Context, logger zerolog.Logger, e *Entry) {
	if e.TTL <= 0 {
		return
	}
	if err := c.store.Set(ctx, e); err != nil {
		logger.Warn().Err(err).Msg("cache write failed")
	}
}
