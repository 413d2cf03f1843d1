package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "github.com/vearutop/lazycache"
)

func TestInvalidator_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache1 := cache.NewSimple[string, *item](newItemFactory(), cache.Config{Name: "one"})
	cache2 := cache.NewLRU[string, *item](newItemFactory(), cache.Config{Name: "two", Capacity: 10})

	i := &cache.Invalidator{}
	_, err := i.Invalidate(ctx)
	assert.ErrorIs(t, err, cache.ErrNothingToInvalidate)

	called := 0

	i.Add(cache1, cache2)
	i.Callbacks = append(i.Callbacks, func(_ context.Context) { called++ })

	for _, k := range []string{"a", "b"} {
		_, err := cache1.Get(ctx, k)
		require.NoError(t, err)
	}

	_, err = cache2.Get(ctx, "c")
	require.NoError(t, err)

	n, err := i.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, called)

	assert.Equal(t, 0, cache1.Len())
	assert.Equal(t, 0, cache2.Len())

	_, err = i.Invalidate(ctx)
	assert.ErrorIs(t, err, cache.ErrAlreadyInvalidated)
	assert.Equal(t, 1, called)
}

func TestInvalidator_Invalidate_skipInterval(t *testing.T) {
	ctx := context.Background()
	c := cache.NewFIFO[string, *item](newItemFactory(), cache.Config{Name: "fifo"})

	i := &cache.Invalidator{SkipInterval: time.Millisecond}
	i.Add(c)

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)

	n, err := i.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	time.Sleep(5 * time.Millisecond)

	_, err = c.Get(ctx, "a")
	require.NoError(t, err)

	n, err = i.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
