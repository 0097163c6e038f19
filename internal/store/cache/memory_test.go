package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "openai", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "openai", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, "k1"))
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	var out string
	assert.ErrorIs(t, c.Get(context.Background(), "missing", &out), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", "v1", 10*time.Millisecond))

	var got string
	require.NoError(t, c.Get(ctx, "k1", &got))

	time.Sleep(20 * time.Millisecond)
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)
}
