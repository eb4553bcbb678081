package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_Lock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	ok, err := c.Acquire(ctx, "lock", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Acquire(ctx, "lock", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// a different owner cannot release it
	require.NoError(t, c.Release(ctx, "lock", "run-2"))
	ok, _ = c.Acquire(ctx, "lock", "run-2", time.Minute)
	assert.False(t, ok)

	require.NoError(t, c.Release(ctx, "lock", "run-1"))
	ok, _ = c.Acquire(ctx, "lock", "run-2", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCache_Extend(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, err := c.Acquire(ctx, "lock", "run-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(50 * time.Second)
	ok, err = c.Extend(ctx, "lock", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Extend(ctx, "lock", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// still held past the original expiry
	now = now.Add(30 * time.Second)
	ok, _ = c.Acquire(ctx, "lock", "run-2", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, err = c.Extend(ctx, "lock", "run-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
