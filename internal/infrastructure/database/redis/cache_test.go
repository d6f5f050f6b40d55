package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
)

type snapshot struct {
	EvaluationID string  `json:"evaluation_id"`
	Value        float64 `json:"value"`
}

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := NewClientWithRedis(rdb, logging.NewNopLogger())
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, logging.NewNopLogger(), WithPrefix("test:")), mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	in := snapshot{EvaluationID: "eval-1", Value: 2355000}
	require.NoError(t, cache.Set(ctx, "evaluation:eval-1", in, time.Minute))

	var out snapshot
	require.NoError(t, cache.Get(ctx, "evaluation:eval-1", &out))
	assert.Equal(t, in, out)
}

func TestCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var out snapshot
	err := cache.Get(context.Background(), "absent", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k1", snapshot{Value: 1}, 0))
	require.NoError(t, cache.Delete(ctx, "k1"))

	var out snapshot
	assert.ErrorIs(t, cache.Get(ctx, "k1", &out), ErrCacheMiss)

	// deleting nothing is a no-op
	assert.NoError(t, cache.Delete(ctx))
}

func TestCache_DeleteByPrefix(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "evaluation:a:sales", snapshot{Value: 1}, 0))
	require.NoError(t, cache.Set(ctx, "evaluation:a:cost", snapshot{Value: 2}, 0))
	require.NoError(t, cache.Set(ctx, "evaluation:b:sales", snapshot{Value: 3}, 0))

	deleted, err := cache.DeleteByPrefix(ctx, "evaluation:a:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var out snapshot
	assert.ErrorIs(t, cache.Get(ctx, "evaluation:a:sales", &out), ErrCacheMiss)
	assert.NoError(t, cache.Get(ctx, "evaluation:b:sales", &out))
}

func TestCache_GetOrSet_LoadsOnMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return snapshot{EvaluationID: "eval-2", Value: 97.75}, nil
	}

	var out snapshot
	require.NoError(t, cache.GetOrSet(ctx, "evaluation:eval-2", &out, time.Minute, loader))
	assert.Equal(t, 97.75, out.Value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Second call hits the cache.
	var again snapshot
	require.NoError(t, cache.GetOrSet(ctx, "evaluation:eval-2", &again, time.Minute, loader))
	assert.Equal(t, out, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_GetOrSet_ConcurrentMissesShareOneLoad(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return snapshot{Value: 42}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out snapshot
			assert.NoError(t, cache.GetOrSet(ctx, "hot-key", &out, time.Minute, loader))
			assert.Equal(t, 42.0, out.Value)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_TTLApplied(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", snapshot{Value: 1}, time.Second))
	mr.FastForward(2 * time.Second)

	var out snapshot
	assert.ErrorIs(t, cache.Get(ctx, "short", &out), ErrCacheMiss)
}
