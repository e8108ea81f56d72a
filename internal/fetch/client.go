// Package fetch orchestrates remote list and detail requests: it caches
// responses by canonical request key, de-duplicates identical in-flight
// requests, retries transient failures and tracks per-observer result state.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jengzang/quake-explorer-go/internal/metrics"
	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
)

// Source performs one remote request
type Source interface {
	Query(ctx context.Context, dataSource string, params map[string]string) ([]models.Record, error)
}

// Store is a persistent second cache tier consulted on memory misses
type Store interface {
	Load(ctx context.Context, key string) ([]models.Record, time.Time, bool, error)
	Save(ctx context.Context, key string, records []models.Record, fetchedAt time.Time) error
}

// RetryPolicy bounds the retries of one logical request
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 3 retries with exponential intervals from 500ms up to 5s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Options configures a Client
type Options struct {
	// StaleTime is how long a response is served without refetching
	StaleTime time.Duration
	// PersistTTL is the maximum age of a persisted response that is still served
	PersistTTL time.Duration
	Retry      RetryPolicy
	// Retryable decides whether a failed attempt is retried. Defaults to
	// retrying everything except not-found and cancellation.
	Retryable func(error) bool
	Store     Store
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type entry struct {
	records   []models.Record
	fetchedAt time.Time
}

// Client is shared by every page session. All methods are safe for concurrent use.
type Client struct {
	source Source
	opts   Options

	mu    sync.RWMutex
	cache map[string]entry
	group singleflight.Group
}

// NewClient creates a new fetch client
func NewClient(source Source, opts Options) *Client {
	if opts.StaleTime <= 0 {
		opts.StaleTime = 5 * time.Minute
	}
	if opts.PersistTTL <= 0 {
		opts.PersistTTL = time.Hour
	}
	if opts.Retry.InitialInterval <= 0 {
		opts.Retry.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if opts.Retry.MaxInterval <= 0 {
		opts.Retry.MaxInterval = DefaultRetryPolicy().MaxInterval
	}
	if opts.Retryable == nil {
		opts.Retryable = defaultRetryable
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		source: source,
		opts:   opts,
		cache:  make(map[string]entry),
	}
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, models.ErrRecordNotFound) && !errors.Is(err, context.Canceled)
}

// StaleTime returns the configured freshness window
func (c *Client) StaleTime() time.Duration {
	return c.opts.StaleTime
}

// Cached returns the in-memory entry for key and whether it is still fresh
func (c *Client) Cached(key string) (records []models.Record, fetchedAt time.Time, fresh bool, ok bool) {
	c.mu.RLock()
	e, ok := c.cache[key]
	c.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false, false
	}
	return e.records, e.fetchedAt, c.isFresh(e.fetchedAt), true
}

func (c *Client) isFresh(fetchedAt time.Time) bool {
	return c.opts.Now().Sub(fetchedAt) < c.opts.StaleTime
}

// Fetch returns the records for one request, from memory when fresh, from
// the persistent store when recent enough, and from the source otherwise.
// Identical concurrent requests share one remote call.
func (c *Client) Fetch(
	ctx context.Context,
	dataSource, kind string,
	params map[string]string,
) ([]models.Record, time.Time, error) {
	key := query.CacheKey(dataSource, kind, params)

	if records, fetchedAt, fresh, ok := c.Cached(key); ok && fresh {
		c.opts.Metrics.RecordCacheLookup("hit")
		return records, fetchedAt, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, dataSource, kind, params)
	})

	select {
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, time.Time{}, res.Err
		}
		e := res.Val.(entry)
		return e.records, e.fetchedAt, nil
	}
}

func (c *Client) load(ctx context.Context, key, dataSource, kind string, params map[string]string) (entry, error) {
	if c.opts.Store != nil {
		records, fetchedAt, ok, err := c.opts.Store.Load(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("Failed to load persisted response")
		case ok && c.opts.Now().Sub(fetchedAt) < c.opts.PersistTTL:
			c.opts.Metrics.RecordCacheLookup("persisted")
			e := entry{records: records, fetchedAt: fetchedAt}
			c.put(key, e)
			return e, nil
		}
	}
	c.opts.Metrics.RecordCacheLookup("miss")

	start := time.Now()
	records, err := c.retry(ctx, dataSource, params)
	c.opts.Metrics.RecordUpstream(kind, time.Since(start), err)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Upstream request failed")
		return entry{}, err
	}

	e := entry{records: records, fetchedAt: c.opts.Now()}
	c.put(key, e)
	log.Debug().Str("key", key).Int("records", len(records)).Msg("Fetched records")

	if c.opts.Store != nil {
		if err := c.opts.Store.Save(ctx, key, records, e.fetchedAt); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to persist response")
		}
	}
	return e, nil
}

func (c *Client) retry(ctx context.Context, dataSource string, params map[string]string) ([]models.Record, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.Retry.InitialInterval
	b.MaxInterval = c.opts.Retry.MaxInterval
	b.MaxElapsedTime = 0

	var records []models.Record
	operation := func() error {
		r, err := c.source.Query(ctx, dataSource, params)
		if err != nil {
			if !c.opts.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		records = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.opts.Metrics.RecordRetry()
		log.Debug().Err(err).Dur("wait", wait).Str("source", dataSource).Msg("Retrying upstream request")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.opts.Retry.MaxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", dataSource, err)
	}
	return records, nil
}

func (c *Client) put(key string, e entry) {
	c.mu.Lock()
	c.cache[key] = e
	c.mu.Unlock()
}

// Invalidate drops the in-memory entry for key
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

// Prune drops in-memory entries older than maxAge and returns how many were removed
func (c *Client) Prune(maxAge time.Duration) int {
	now := c.opts.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.cache {
		if now.Sub(e.fetchedAt) > maxAge {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}
