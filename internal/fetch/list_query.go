package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
)

// ListQuery is one observer of a list request, owned by a page session.
// Each parameter change starts a new generation; a response that arrives
// for an older generation, or after Close, is dropped.
type ListQuery struct {
	client     *Client
	dataSource string

	mu         sync.Mutex
	key        string
	generation uint64
	closed     bool
	settled    bool
	fetching   bool
	data       []models.Record
	err        error
	updatedAt  time.Time
	discarded  uint64
	changed    chan struct{}
}

// NewListQuery creates an observer for dataSource with no request yet
func (c *Client) NewListQuery(dataSource string) *ListQuery {
	return &ListQuery{
		client:     c,
		dataSource: dataSource,
		changed:    make(chan struct{}),
	}
}

// Update points the observer at params and reports whether a remote
// request was started. Unchanged parameters with fresh data, or with a
// request already in flight, are a no-op.
func (q *ListQuery) Update(params map[string]string) bool {
	key := query.CacheKey(q.dataSource, query.KindList, params)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	records, fetchedAt, fresh, cached := q.client.Cached(key)
	if key == q.key && (q.fetching || (fresh && q.err == nil)) {
		return false
	}

	if key != q.key {
		q.err = nil
	}
	q.key = key
	q.generation++

	if cached {
		q.client.opts.Metrics.RecordCacheLookup(cacheOutcome(fresh))
		q.data = records
		q.updatedAt = fetchedAt
		q.settled = true
		q.err = nil
		if fresh {
			q.fetching = false
			q.broadcast()
			return false
		}
	}

	q.fetching = true
	q.broadcast()

	gen := q.generation
	go q.run(gen, key, copyParams(params))
	return true
}

func cacheOutcome(fresh bool) string {
	if fresh {
		return "hit"
	}
	return "stale"
}

func (q *ListQuery) run(gen uint64, key string, params map[string]string) {
	records, fetchedAt, err := q.client.Fetch(context.Background(), q.dataSource, query.KindList, params)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || gen != q.generation {
		q.discarded++
		q.client.opts.Metrics.RecordDiscard()
		log.Debug().
			Str("key", key).
			Uint64("generation", gen).
			Uint64("current", q.generation).
			Msg("Discarded superseded response")
		return
	}

	q.fetching = false
	q.settled = true
	if err != nil {
		q.err = err
	} else {
		q.data = records
		q.updatedAt = fetchedAt
		q.err = nil
	}
	q.broadcast()
}

// broadcast wakes every Wait call; the caller holds q.mu
func (q *ListQuery) broadcast() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// Result returns a snapshot of the observer state
func (q *ListQuery) Result() models.ListResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	res := models.ListResult{
		Data:       q.data,
		IsPending:  !q.settled,
		IsFetching: q.fetching,
		IsError:    q.err != nil,
	}
	if q.err != nil {
		res.Error = q.err.Error()
	}
	if !q.updatedAt.IsZero() {
		t := q.updatedAt
		res.UpdatedAt = &t
	}
	return res
}

// Key returns the cache key the observer currently points at
func (q *ListQuery) Key() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// Wait blocks until no request is in flight for the current generation
func (q *ListQuery) Wait(ctx context.Context) (models.ListResult, error) {
	for {
		q.mu.Lock()
		if !q.fetching || q.closed {
			q.mu.Unlock()
			return q.Result(), nil
		}
		ch := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return q.Result(), ctx.Err()
		case <-ch:
		}
	}
}

// Discarded returns how many responses were dropped as superseded
func (q *ListQuery) Discarded() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.discarded
}

// Close unmounts the observer. In-flight responses are discarded on arrival.
func (q *ListQuery) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.fetching = false
	q.broadcast()
}

func copyParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
