package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/pricing-catalog-backend/internal/cache"
)

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestSetGet(t *testing.T) {
	c := newCache(t)

	c.Set("publications", 0, "all", []string{"a", "b"}, 1)
	c.Wait()

	v, ok := c.Get("publications", "all")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	_, ok = c.Get("listicles", "all")
	assert.False(t, ok)
}

func TestInvalidateIsPerGroup(t *testing.T) {
	c := newCache(t)

	c.Set("publications", 0, "all", 1, 1)
	c.Set("listicles", 0, "all", 2, 1)
	c.Wait()

	c.Invalidate("publications")

	_, ok := c.Get("publications", "all")
	assert.False(t, ok)

	v, ok := c.Get("listicles", "all")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, uint64(1), c.Generation("publications"))
	c.Set("publications", c.Generation("publications"), "all", 3, 1)
	c.Wait()
	v, ok = c.Get("publications", "all")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestClear(t *testing.T) {
	c := newCache(t)
	c.Set("print", 0, "all", "x", 1)
	c.Wait()
	c.Clear()

	_, ok := c.Get("print", "all")
	assert.False(t, ok)
}

func TestSetDropsLoadThatRacedInvalidate(t *testing.T) {
	c := newCache(t)

	gen := c.Generation("print")
	// a write lands while the old snapshot is being loaded
	c.Invalidate("print")

	assert.False(t, c.Set("print", gen, "all", "old snapshot", 1))
	c.Wait()
	_, ok := c.Get("print", "all")
	assert.False(t, ok)

	assert.True(t, c.Set("print", c.Generation("print"), "all", "fresh", 1))
	c.Wait()
	v, ok := c.Get("print", "all")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}
