package cache_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "github.com/vearutop/lazycache"
)

func TestGeneric_Invalidate_waitsForLoading(t *testing.T) {
	f := newItemFactory()
	f.gate = make(chan struct{})
	f.started = make(chan string, 100)

	c := cache.NewGeneric[string, *item](f, cache.Config{Name: "test"})
	ctx := context.Background()

	loaded := make(chan *item)

	go func() {
		v, err := c.Get(ctx, "k")
		assert.NoError(t, err)

		loaded <- v
	}()

	<-f.started

	invalidated := make(chan int)

	go func() {
		invalidated <- c.Invalidate(ctx, "k")
	}()

	select {
	case <-invalidated:
		t.Fatal("invalidate did not wait for construction")
	case <-time.After(20 * time.Millisecond):
	}

	close(f.gate)

	v := <-loaded

	assert.Equal(t, 1, <-invalidated)
	assert.Equal(t, 1, f.destroyedCount(v))
	assert.Equal(t, 0, c.Len())
}

func TestGeneric_Invalidate_cancelled(t *testing.T) {
	f := newItemFactory()
	f.gate = make(chan struct{})
	f.started = make(chan string, 100)

	c := cache.NewGeneric[string, *item](f, cache.Config{Name: "test"})

	loaded := make(chan *item)

	go func() {
		v, err := c.Get(context.Background(), "k")
		assert.NoError(t, err)

		loaded <- v
	}()

	<-f.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Construction in progress is superseded when waiting is cancelled.
	assert.Equal(t, 0, c.Invalidate(ctx, "k"))

	close(f.gate)

	v := <-loaded

	_, ok := c.GetIfResident(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, 1, f.destroyedCount(v))
}

func TestGeneric_concurrency(t *testing.T) {
	f := newItemFactory()
	c := cache.NewGeneric[string, *item](f, cache.Config{Name: "test"})
	ctx := context.Background()

	keys := 50
	wg := sync.WaitGroup{}

	for r := 0; r < 8; r++ {
		wg.Add(1)

		go func(r int) {
			defer wg.Done()

			for i := 0; i < keys; i++ {
				k := strconv.Itoa((i + r) % keys)

				v, err := c.Get(ctx, k)
				if assert.NoError(t, err) {
					assert.Equal(t, k, v.key)
				}
			}
		}(r)
	}

	wg.Wait()

	assert.Equal(t, int64(keys), f.calls.Load())
	require.Equal(t, keys, c.Len())
}
