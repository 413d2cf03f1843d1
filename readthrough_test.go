package cache_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "github.com/vearutop/lazycache"
	"github.com/vearutop/lazycache/ldc"
	"github.com/vearutop/lazycache/ldc/memstore"
)

type fare struct {
	Route  string
	Amount int
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	remote := memstore.New(0, 0)

	b, err := ldc.GobCodec[fare]{}.Marshal(fare{Route: "AMS-JFK", Amount: 420})
	require.NoError(t, err)
	require.NoError(t, remote.Put(ctx, "fares", "AMS-JFK", b, 0))

	var built atomic.Int64

	f := cache.ReadThrough[string, fare](cache.FactoryFunc[string, fare](func(_ context.Context, key string) (fare, error) {
		built.Add(1)

		return fare{Route: key, Amount: 100}, nil
	}), cache.ReadThroughConfig[string, fare]{
		Remote: remote,
		Table:  "fares",
	})

	c := cache.NewSimple[string, fare](f, cache.Config{Name: "fares"})

	v, err := c.Get(ctx, "AMS-JFK")
	require.NoError(t, err)
	assert.Equal(t, fare{Route: "AMS-JFK", Amount: 420}, v)
	assert.Equal(t, int64(0), built.Load())

	v, err = c.Get(ctx, "AMS-LHR")
	require.NoError(t, err)
	assert.Equal(t, fare{Route: "AMS-LHR", Amount: 100}, v)
	assert.Equal(t, int64(1), built.Load())
}

// versionedFactory marks values stale once version changes.
type versionedFactory struct {
	version   atomic.Int64
	created   atomic.Int64
	recreated atomic.Int64
	destroyed atomic.Int64
}

type versioned struct {
	key     string
	version int64
	reused  bool
}

func (f *versionedFactory) Create(_ context.Context, key string) (*versioned, error) {
	f.created.Add(1)

	return &versioned{key: key, version: f.version.Load()}, nil
}

func (f *versionedFactory) Validate(_ string, v *versioned) bool {
	return v.version == f.version.Load()
}

func (f *versionedFactory) Destroy(_ string, _ *versioned) {
	f.destroyed.Add(1)
}

type recreatingFactory struct {
	versionedFactory
}

func (f *recreatingFactory) Recreate(_ context.Context, key string, existing *versioned) (*versioned, error) {
	f.recreated.Add(1)

	return &versioned{key: key, version: f.version.Load(), reused: existing != nil}, nil
}

func TestCache_Get_validate(t *testing.T) {
	f := &versionedFactory{}
	c := cache.NewLRU[string, *versioned](f, cache.Config{Capacity: 10})
	ctx := context.Background()

	v1, err := c.Get(ctx, "k")
	require.NoError(t, err)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Same(t, v1, v)

	f.version.Store(1)

	v2, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotSame(t, v1, v2)
	assert.Equal(t, int64(1), v2.version)
	assert.Equal(t, int64(2), f.created.Load())
	assert.Equal(t, int64(1), f.destroyed.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_Get_recreate(t *testing.T) {
	f := &recreatingFactory{}
	c := cache.NewDualMap[string, *versioned](f, cache.Config{})
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)
	c.Consolidate(ctx, 0)

	f.version.Store(1)

	// Stale read-mostly value is flagged and handed to Recreate.
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.version)
	assert.True(t, v.reused)
	assert.Equal(t, int64(1), f.created.Load())
	assert.Equal(t, int64(1), f.recreated.Load())
	assert.Equal(t, 1, c.PendingDeletes())
	assert.Equal(t, 1, c.Len())

	f.version.Store(2)

	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.version)
	assert.True(t, v.reused)
	assert.Equal(t, int64(2), f.recreated.Load())

	// Existing values are handed to Recreate, so they are not destroyed.
	assert.Equal(t, int64(0), f.destroyed.Load())
	assert.Equal(t, int64(0), c.Trash().Destroyed())

	assert.Equal(t, 1, c.Consolidate(ctx, 0))
	assert.Equal(t, 0, c.PendingDeletes())

	got, ok := c.GetIfResident(ctx, "k")
	assert.True(t, ok)
	assert.Same(t, v, got)
}

func TestReadThrough_staleWithoutRecreator(t *testing.T) {
	ctx := context.Background()
	st := &stats.TrackerMock{}
	vf := &versionedFactory{}

	f := cache.ReadThrough[string, *versioned](vf, cache.ReadThroughConfig[string, *versioned]{
		Remote: memstore.New(0, 0),
		Table:  "versions",
	})

	_, ok := f.(cache.Recreator[string, *versioned])
	assert.False(t, ok)

	_, ok = cache.ReadThrough[string, *versioned](&recreatingFactory{}, cache.ReadThroughConfig[string, *versioned]{}).(cache.Recreator[string, *versioned])
	assert.True(t, ok)

	c := cache.NewDualMap[string, *versioned](f, cache.Config{Name: "versions", Stats: st})

	v1, err := c.Get(ctx, "k")
	require.NoError(t, err)
	c.Consolidate(ctx, 0)

	vf.version.Store(1)

	// Stale read-mostly value is discarded through trash and built again.
	v2, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotSame(t, v1, v2)
	assert.Equal(t, int64(1), v2.version)
	assert.Equal(t, int64(2), vf.created.Load())
	assert.Equal(t, int64(1), vf.destroyed.Load())
	assert.Equal(t, int64(1), c.Trash().Destroyed())

	vf.version.Store(2)

	// Stale read-write value too.
	v3, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v3.version)
	assert.Equal(t, int64(3), vf.created.Load())
	assert.Equal(t, int64(2), vf.destroyed.Load())
	assert.Equal(t, int64(2), c.Trash().Destroyed())
	assert.Equal(t, 2, st.Int(cache.MetricDestroy))
}
