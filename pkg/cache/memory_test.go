package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func TestMemoryCache_TypedRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stats:DGS10", stats{Mean: 0.01, Std: 0.2}, 0))

	var got stats
	require.NoError(t, c.Get(ctx, "stats:DGS10", &got))
	assert.Equal(t, stats{Mean: 0.01, Std: 0.2}, got)

	var raw string
	require.NoError(t, c.Get(ctx, "stats:DGS10", &raw))
	assert.JSONEq(t, `{"mean":0.01,"std":0.2}`, raw)
}

func TestMemoryCache_MissAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	var v string
	assert.ErrorIs(t, c.Get(ctx, "absent", &v), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "short", "x", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.ErrorIs(t, c.Get(ctx, "short", &v), ErrCacheMiss)

	ok, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	got, err := c.MGet(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "a")
}

func TestMGetTyped(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, GenerateKey("thr", "A"), 2.5, 0))
	require.NoError(t, c.Set(ctx, GenerateKey("thr", "B"), "not-a-number", 0))

	got, err := MGetTyped[float64](ctx, c, GenerateKeys("thr", "A", "B", "C")...)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"thr:A": 2.5}, got)
}

func TestLayeredCache_ReadsThroughRemote(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", stats{Mean: 1}, 0))

	var got stats
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, 1.0, got.Mean)

	require.NoError(t, remote.Delete(ctx, "k"))
	got = stats{}
	require.NoError(t, lc.Get(ctx, "k", &got), "served from L1")
	assert.Equal(t, 1.0, got.Mean)
}
