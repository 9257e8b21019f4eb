package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type lookupQuery struct{ key string }

func (lookupQuery) Validate() error    { return nil }
func (q lookupQuery) CacheKey() string { return "lookup:" + q.key }

type plainQuery struct{}

func (plainQuery) Validate() error { return nil }

type mapCache struct {
	items  map[string]interface{}
	setErr error
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = value
	return nil
}

type countingStats struct{ hits, misses int }

func (s *countingStats) CacheHit()  { s.hits++ }
func (s *countingStats) CacheMiss() { s.misses++ }

func TestQueryBus_CachingMiddleware(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}}
	stats := &countingStats{}
	calls := 0
	handler := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return calls, nil
	})

	b := NewQueryBus(CachingMiddleware(cache, 60, stats, zap.NewNop()))
	require.NoError(t, b.Register(lookupQuery{}, handler))
	require.NoError(t, b.Register(plainQuery{}, handler))

	ctx := context.Background()
	first, err := b.Ask(ctx, lookupQuery{key: "a"})
	require.NoError(t, err)
	second, err := b.Ask(ctx, lookupQuery{key: "a"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, stats.hits)
	assert.Equal(t, 1, stats.misses)

	_, err = b.Ask(ctx, lookupQuery{key: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Queries without a cache key always reach the handler.
	_, err = b.Ask(ctx, plainQuery{})
	require.NoError(t, err)
	_, err = b.Ask(ctx, plainQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestQueryBus_ErrorsAreNotCached(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}}
	boom := errors.New("boom")
	fail := true
	b := NewQueryBus(CachingMiddleware(cache, 60, nil, zap.NewNop()))
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		if fail {
			return nil, boom
		}
		return "ok", nil
	})))

	_, err := b.Ask(context.Background(), lookupQuery{key: "a"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, cache.items)

	fail = false
	out, err := b.Ask(context.Background(), lookupQuery{key: "a"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestQueryBus_CacheWriteFailureIsIgnored(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}, setErr: errors.New("full")}
	b := NewQueryBus(CachingMiddleware(cache, 60, nil, zap.NewNop()))
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		return "ok", nil
	})))

	out, err := b.Ask(context.Background(), lookupQuery{key: "a"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestQueryBus_UnknownQuery(t *testing.T) {
	_, err := NewQueryBus().Ask(context.Background(), plainQuery{})
	assert.ErrorContains(t, err, "no handler registered")
}
