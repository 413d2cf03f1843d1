package factory_test

import (
	"context"
	"testing"
	"time"

	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "github.com/vearutop/lazycache"
	"github.com/vearutop/lazycache/factory"
	"github.com/vearutop/lazycache/ldc"
	"github.com/vearutop/lazycache/ldc/memstore"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := factory.NewRegistry(factory.RegistryConfig{InvalidateSkipInterval: time.Hour})

	fares := cache.NewLRU[string, int](lengths, cache.Config{Name: "fares", Options: ldc.NewTypeOptions("fares", true, false)})
	taxes := cache.NewDualMap[int, string](cache.FactoryFunc[int, string](func(_ context.Context, key int) (string, error) {
		return "tax", nil
	}), cache.Config{Name: "taxes"})

	require.NoError(t, factory.Register[string, int](r, fares))
	require.NoError(t, factory.Register[int, string](r, taxes))
	assert.ErrorIs(t, factory.Register[string, int](r, fares), factory.ErrAlreadyRegistered)

	assert.Equal(t, []string{"fares", "taxes"}, r.Names())

	c, ok := factory.Lookup[string, int](r, "fares")
	require.True(t, ok)
	assert.Same(t, fares, c)

	_, ok = factory.Lookup[string, string](r, "fares")
	assert.False(t, ok)

	_, ok = factory.Lookup[string, int](r, "routes")
	assert.False(t, ok)

	e, ok := r.Get("taxes")
	require.True(t, ok)
	assert.Equal(t, "taxes", e.Name())

	for i := 1; i <= 5; i++ {
		_, err := taxes.Get(ctx, i)
		require.NoError(t, err)
	}

	_, err := fares.Get(ctx, "AMS")
	require.NoError(t, err)

	assert.Equal(t, 1, r.SizeAllQueues())

	assert.Equal(t, 5, taxes.ConsolidationSize())
	assert.Equal(t, 5, r.ConsolidateAll(ctx, 0))
	assert.Equal(t, 0, taxes.ConsolidationSize())

	r.ClearAllQueues(ctx)
	assert.Equal(t, 0, r.SizeAllQueues())

	n, err := r.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 0, fares.Len())
	assert.Equal(t, 0, taxes.Len())

	_, err = r.ClearAll(ctx)
	assert.ErrorIs(t, err, cache.ErrAlreadyInvalidated)
}

func TestRegistry_ConsolidateAll_pendingDeletes(t *testing.T) {
	ctx := context.Background()
	r := factory.NewRegistry()

	fares := cache.NewDualMap[string, int](lengths, cache.Config{Name: "fares"})
	require.NoError(t, factory.Register[string, int](r, fares))

	for _, k := range []string{"AMS", "BER", "CDG"} {
		_, err := fares.Get(ctx, k)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, r.ConsolidateAll(ctx, 0))

	assert.Equal(t, 1, fares.Invalidate(ctx, "AMS"))
	assert.Equal(t, 1, fares.Invalidate(ctx, "BER"))
	assert.Equal(t, 2, fares.PendingDeletes())
	assert.Equal(t, 0, fares.ConsolidationSize())

	// Nothing to move, flagged values are still erased.
	assert.Equal(t, 0, r.ConsolidateAll(ctx, 100))
	assert.Equal(t, 0, fares.PendingDeletes())
	assert.Equal(t, 1, fares.Len())
}

func TestRegistry_WaitForQueuesToSubside(t *testing.T) {
	ctx := context.Background()
	r := factory.NewRegistry()

	c := cache.NewSimple[string, int](lengths, cache.Config{Name: "fares", Options: ldc.NewTypeOptions("fares", true, false)})
	require.NoError(t, factory.Register[string, int](r, c))

	require.NoError(t, r.WaitForQueuesToSubside(ctx, time.Millisecond))

	c.Put(ctx, "AMS", 3)

	tctx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.WaitForQueuesToSubside(tctx, time.Millisecond), context.DeadlineExceeded)

	disk := memstore.New(0, 0)
	d := ldc.NewDrainer[string, int](c.ActionQueue(), c, nil, nil, ldc.DrainerConfig{
		Disk:         disk,
		PollInterval: time.Millisecond,
	})

	dctx, stop := context.WithCancel(ctx)
	defer stop()

	go d.Run(dctx)

	require.NoError(t, r.WaitForQueuesToSubside(ctx, time.Millisecond))
	assert.Equal(t, 0, r.SizeAllQueues())

	// Drainer may still be writing the last popped operation.
	assert.Eventually(t, func() bool {
		return disk.Len() == 1
	}, time.Second, time.Millisecond)
}

func TestRegistry_ReportStats(t *testing.T) {
	ctx := context.Background()
	st := &stats.TrackerMock{}
	r := factory.NewRegistry(factory.RegistryConfig{Stats: st})

	c := cache.NewFIFO[string, int](lengths, cache.Config{Name: "fares", Options: ldc.NewTypeOptions("fares", true, false)})
	require.NoError(t, factory.Register[string, int](r, c))

	for _, k := range []string{"AMS", "JFK", "LHR"} {
		_, err := c.Get(ctx, k)
		require.NoError(t, err)
	}

	c.Invalidate(ctx, "JFK")

	r.ReportStats(ctx)
	assert.Equal(t, 2, st.Int(cache.MetricItems))
	assert.Equal(t, 4, st.Int(ldc.MetricQueueLen))
}
