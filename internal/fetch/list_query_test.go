package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
)

func ptr(f float64) *float64 { return &f }

var magFilter = models.FilterConfig{
	Field:       "mag",
	Operator:    models.OpBetweenInclusive,
	FilterProps: models.FilterProps{Min: ptr(0), Max: ptr(10)},
	ParamType:   models.ParamTypeMinMax,
	ParamTypeOptions: &models.ParamTypeOptions{
		MinParam: "minmagnitude",
		MaxParam: "maxmagnitude",
	},
}

var staticParams = map[string]string{"format": "geojson", "limit": "1000", "orderby": "time"}

func waitResult(t *testing.T, q *ListQuery) models.ListResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := q.Wait(ctx)
	require.NoError(t, err)
	return res
}

// gatedSource blocks requests whose params carry a gated value until released
type gatedSource struct {
	fakeSource
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedSource(respond func(params map[string]string) []models.Record) *gatedSource {
	g := &gatedSource{gates: map[string]chan struct{}{}}
	g.respond = func(params map[string]string, _ int) ([]models.Record, error) {
		g.mu.Lock()
		gate := g.gates[params["tag"]]
		g.mu.Unlock()
		if gate != nil {
			<-gate
		}
		return respond(params), nil
	}
	return g
}

func (g *gatedSource) gate(tag string) chan struct{} {
	ch := make(chan struct{})
	g.mu.Lock()
	g.gates[tag] = ch
	g.mu.Unlock()
	return ch
}

func TestListQuery_ServerModePaginationFetchesOnce(t *testing.T) {
	src := &fakeSource{}
	c := NewClient(src, Options{Retry: fastRetry()})
	resolver, err := query.NewResolver(query.ModeServer, query.Options{
		Filters:      []models.FilterConfig{magFilter},
		StaticParams: staticParams,
		Pagination:   models.PaginationParams{OffsetBase: 1},
	})
	require.NoError(t, err)

	active := models.NewActiveFilterSet()
	q := c.NewListQuery(source)
	defer q.Close()

	assert.True(t, q.Update(resolver.Resolve(active, "", models.PaginationState{Page: 0, PageSize: 25}).Params))
	waitResult(t, q)
	require.Equal(t, 1, src.Calls())

	assert.True(t, q.Update(resolver.Resolve(active, "", models.PaginationState{Page: 1, PageSize: 25}).Params))
	waitResult(t, q)
	assert.Equal(t, 2, src.Calls(), "a page change costs exactly one request")
	assert.Equal(t, "26", src.requests[1]["offset"])

	assert.False(t, q.Update(resolver.Resolve(active, "", models.PaginationState{Page: 1, PageSize: 25}).Params))
	assert.Equal(t, 2, src.Calls())
}

func TestListQuery_ClientModeFilterChangeDoesNotFetch(t *testing.T) {
	src := &fakeSource{}
	c := NewClient(src, Options{Retry: fastRetry()})
	resolver, err := query.NewResolver(query.ModeClient, query.Options{
		Filters:      []models.FilterConfig{magFilter},
		StaticParams: staticParams,
	})
	require.NoError(t, err)

	active := models.NewActiveFilterSet()
	q := c.NewListQuery(source)
	defer q.Close()

	q.Update(resolver.Resolve(active, "", models.PaginationState{PageSize: 25}).Params)
	waitResult(t, q)
	require.Equal(t, 1, src.Calls())

	require.NoError(t, active.Set(magFilter, models.RangeValue{Min: 3, Max: 5}))
	started := q.Update(resolver.Resolve(active, "alaska", models.PaginationState{Page: 2, PageSize: 25}).Params)

	assert.False(t, started)
	assert.Equal(t, 1, src.Calls())
}

func TestListQuery_IsPendingUntilFirstResponse(t *testing.T) {
	src := newGatedSource(func(params map[string]string) []models.Record {
		return []models.Record{{"id": params["tag"]}}
	})
	release := src.gate("first")
	c := NewClient(src, Options{Retry: fastRetry()})
	q := c.NewListQuery(source)
	defer q.Close()

	assert.True(t, q.Result().IsPending)

	q.Update(map[string]string{"tag": "first"})
	res := q.Result()
	assert.True(t, res.IsPending)
	assert.True(t, res.IsFetching)
	assert.Empty(t, res.Data)

	close(release)
	res = waitResult(t, q)
	assert.False(t, res.IsPending)
	assert.False(t, res.IsFetching)
	require.Len(t, res.Data, 1)
	assert.NotNil(t, res.UpdatedAt)

	// a key change keeps the previous data while fetching
	secondGate := src.gate("second")
	q.Update(map[string]string{"tag": "second"})
	res = q.Result()
	assert.False(t, res.IsPending)
	assert.True(t, res.IsFetching)
	assert.Equal(t, "first", res.Data[0].ID("id"))

	close(secondGate)
	res = waitResult(t, q)
	assert.Equal(t, "second", res.Data[0].ID("id"))
}

func TestListQuery_DiscardsSupersededResponse(t *testing.T) {
	src := newGatedSource(func(params map[string]string) []models.Record {
		return []models.Record{{"id": params["tag"]}}
	})
	slow := src.gate("A")
	c := NewClient(src, Options{Retry: fastRetry()})
	q := c.NewListQuery(source)
	defer q.Close()

	q.Update(map[string]string{"tag": "A"})
	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)
	q.Update(map[string]string{"tag": "B"})

	res := waitResult(t, q)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "B", res.Data[0].ID("id"))

	close(slow)
	require.Eventually(t, func() bool { return q.Discarded() == 1 }, time.Second, time.Millisecond)

	res = q.Result()
	assert.Equal(t, "B", res.Data[0].ID("id"), "the late response never overwrites newer state")
	assert.Equal(t, q.Key(), query.CacheKey(source, query.KindList, map[string]string{"tag": "B"}))
}

func TestListQuery_CloseDiscardsInFlight(t *testing.T) {
	src := newGatedSource(func(params map[string]string) []models.Record {
		return []models.Record{{"id": "late"}}
	})
	gate := src.gate("A")
	c := NewClient(src, Options{Retry: fastRetry()})
	q := c.NewListQuery(source)

	q.Update(map[string]string{"tag": "A"})
	q.Close()
	close(gate)

	require.Eventually(t, func() bool { return q.Discarded() == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, q.Result().Data)
	assert.False(t, q.Update(map[string]string{"tag": "B"}), "closed observers ignore updates")
}

func TestListQuery_TerminalErrorIsReported(t *testing.T) {
	src := &fakeSource{respond: func(map[string]string, int) ([]models.Record, error) {
		return nil, errTransient
	}}
	c := NewClient(src, Options{Retry: fastRetry()})
	q := c.NewListQuery(source)
	defer q.Close()

	q.Update(staticParams)
	res := waitResult(t, q)

	assert.True(t, res.IsError)
	assert.Contains(t, res.Error, "connection reset")
	assert.False(t, res.IsPending)
	assert.False(t, res.IsFetching)
	assert.Empty(t, res.Data)
}

func TestListQuery_CacheHitAppliesSynchronously(t *testing.T) {
	src := &fakeSource{}
	c := NewClient(src, Options{Retry: fastRetry()})

	first := c.NewListQuery(source)
	first.Update(staticParams)
	waitResult(t, first)
	first.Close()

	second := c.NewListQuery(source)
	defer second.Close()
	started := second.Update(staticParams)

	assert.False(t, started)
	res := second.Result()
	assert.False(t, res.IsPending)
	assert.False(t, res.IsFetching)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 1, src.Calls())
}

func TestListQuery_StaleDataIsShownWhileRefetching(t *testing.T) {
	src := &fakeSource{}
	clk := newClock()
	c := NewClient(src, Options{StaleTime: time.Minute, Now: clk.Now, Retry: fastRetry()})

	q := c.NewListQuery(source)
	defer q.Close()
	q.Update(staticParams)
	waitResult(t, q)

	clk.Advance(5 * time.Minute)
	other := c.NewListQuery(source)
	defer other.Close()
	assert.True(t, other.Update(staticParams))
	assert.Len(t, other.Result().Data, 1, "stale data is served immediately")

	waitResult(t, other)
	assert.Equal(t, 2, src.Calls())
}
