package cache

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync"
	"github.com/vearutop/lazycache/ldc"
)

type roEntry[V any] struct {
	value   V
	evicted atomic.Bool
}

// DualMap is a two-tier cache with lock-free reads of consolidated values.
//
// Read-mostly tier is an immutable map replaced by Consolidate, it is read without locks.
// New values land in read-write tier. Invalidation of a read-mostly value only flags it,
// flagged values are erased by the next Consolidate, see PendingDeletes.
type DualMap[K comparable, V any] struct {
	rw *keyed[K, V]

	// mu is held shared by mutations and exclusively by consolidation.
	mu *xsync.RBMutex

	ro      atomic.Pointer[map[K]*roEntry[V]]
	roLive  atomic.Int64
	pending atomic.Int64
}

var _ Cache[string, int] = &DualMap[string, int]{}

// NewDualMap creates a two-tier cache.
func NewDualMap[K comparable, V any](f Factory[K, V], cfg ...Config) *DualMap[K, V] {
	c := &DualMap[K, V]{
		rw: newKeyed[K, V](newBase[K, V](f, cfg), nil),
		mu: new(xsync.RBMutex),
	}

	ro := make(map[K]*roEntry[V])
	c.ro.Store(&ro)
	c.rw.lookaside = c.lookaside

	return c
}

func (c *DualMap[K, V]) readMostly(key K) (V, bool) {
	if e, ok := (*c.ro.Load())[key]; ok && !e.evicted.Load() {
		return e.value, true
	}

	var v V

	return v, false
}

// lookaside checks read-mostly tier under read-write lock, which excludes Consolidate and Clear.
func (c *DualMap[K, V]) lookaside(key K) (V, bool, bool) {
	var zero V

	v, ok := c.readMostly(key)
	if !ok {
		return zero, false, false
	}

	if c.rw.valid(key, v) {
		return v, true, false
	}

	// Stale value is handed to Recreate and stays with factory.
	if !c.evictReadMostly(key, c.rw.recreator == nil) {
		return zero, false, false
	}

	return v, false, true
}

// evictReadMostly flags read-mostly value and optionally moves it to trash,
// it reports if value was live.
func (c *DualMap[K, V]) evictReadMostly(key K, discard bool) bool {
	e, ok := (*c.ro.Load())[key]
	if !ok || !e.evicted.CompareAndSwap(false, true) {
		return false
	}

	c.rw.discarded(key, false)

	if discard {
		c.rw.trash.add(key, e.value)
	}

	c.roLive.Add(-1)
	c.pending.Add(1)

	return true
}

func (c *DualMap[K, V]) onDiscard(fn func(key K, all bool)) {
	c.rw.onDiscard(fn)
}

// Name returns cache name.
func (c *DualMap[K, V]) Name() string {
	return c.rw.Name()
}

// Version returns schema version of cached values.
func (c *DualMap[K, V]) Version() int {
	return c.rw.Version()
}

// Len returns number of resident values in both tiers.
func (c *DualMap[K, V]) Len() int {
	return c.rw.Len() + int(c.roLive.Load())
}

// PendingDeletes returns number of flagged read-mostly values waiting for Consolidate.
func (c *DualMap[K, V]) PendingDeletes() int {
	return int(c.pending.Load())
}

// Get returns value of a key, constructing it in read-write tier if it is missing.
func (c *DualMap[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.readMostly(key); ok && c.rw.valid(key, v) {
		c.rw.stat.Add(ctx, MetricHit, 1, "name", c.rw.config.Name)

		return v, nil
	}

	// Stale read-mostly value is retired by lookaside under read-write lock.
	return c.rw.Get(ctx, key)
}

// GetIfResident returns value of a key if it is present in any tier.
func (c *DualMap[K, V]) GetIfResident(ctx context.Context, key K) (V, bool) {
	if v, ok := c.readMostly(key); ok {
		c.rw.stat.Add(ctx, MetricHit, 1, "name", c.rw.config.Name)

		return v, true
	}

	return c.rw.GetIfResident(ctx, key)
}

// Put installs value into read-write tier and flags read-mostly value of the key.
func (c *DualMap[K, V]) Put(ctx context.Context, key K, value V) {
	t := c.mu.RLock()

	c.rw.mu.Lock()
	c.rw.put(ctx, key, value)
	c.rw.mu.Unlock()

	// Read-write tier is updated first, so readers never miss both tiers.
	c.evictReadMostly(key, true)
	c.mu.RUnlock(t)

	c.rw.stat.Add(ctx, MetricWrite, 1, "name", c.rw.config.Name)
	c.rw.queueWrite(ctx, key)
	c.rw.trash.collect(ctx)
}

// Invalidate removes key from both tiers.
func (c *DualMap[K, V]) Invalidate(ctx context.Context, key K) int {
	t := c.mu.RLock()

	c.rw.mu.Lock()
	n := c.rw.remove(key)
	c.rw.mu.Unlock()

	if c.evictReadMostly(key, true) {
		n++
	}

	c.mu.RUnlock(t)

	c.rw.afterRemove(ctx, key, n)

	return n
}

// Clear removes all values of both tiers.
func (c *DualMap[K, V]) Clear(ctx context.Context) int {
	c.mu.Lock()
	c.rw.mu.Lock()

	n := c.rw.clear()

	for k, e := range *c.ro.Load() {
		if e.evicted.CompareAndSwap(false, true) {
			c.rw.trash.add(k, e.value)
			n++
		}
	}

	ro := make(map[K]*roEntry[V])
	c.ro.Store(&ro)
	c.roLive.Store(0)
	c.pending.Store(0)

	c.rw.mu.Unlock()
	c.mu.Unlock()

	c.rw.afterClear(ctx, n)

	return n
}

// Keys returns a snapshot of resident keys of both tiers.
func (c *DualMap[K, V]) Keys() []K {
	keys := c.rw.Keys()

	for k, e := range *c.ro.Load() {
		if !e.evicted.Load() {
			keys = append(keys, k)
		}
	}

	return keys
}

// ConsolidationSize returns number of resident values in read-write tier.
func (c *DualMap[K, V]) ConsolidationSize() int {
	return c.rw.Len()
}

// Consolidate erases flagged read-mostly values and moves up to maxRecords values
// from read-write tier to read-mostly tier, maxRecords <= 0 moves all values.
//
// It returns number of moved values.
func (c *DualMap[K, V]) Consolidate(ctx context.Context, maxRecords int) int {
	c.mu.Lock()
	c.rw.mu.Lock()

	old := *c.ro.Load()
	ro := make(map[K]*roEntry[V], len(old)+c.rw.resident)

	for k, e := range old {
		if !e.evicted.Load() {
			ro[k] = e
		}
	}

	erased := len(old) - len(ro)
	moved := 0

	for k, s := range c.rw.data {
		if maxRecords > 0 && moved >= maxRecords {
			break
		}

		if s.state != slotPresent {
			continue
		}

		delete(c.rw.data, k)
		c.rw.detach(s)

		ro[k] = &roEntry[V]{value: s.value}
		moved++
	}

	c.ro.Store(&ro)
	c.roLive.Store(int64(len(ro)))
	c.pending.Store(0)

	c.rw.mu.Unlock()
	c.mu.Unlock()

	c.rw.stat.Add(ctx, MetricConsolidate, float64(moved), "name", c.rw.config.Name)
	c.rw.log.Debug(ctx, "consolidated cache",
		"name", c.rw.config.Name,
		"moved", moved,
		"erased", erased,
		"remaining", c.rw.Len())

	return moved
}

// ActionQueue returns write-behind queue.
func (c *DualMap[K, V]) ActionQueue() *ldc.ActionQueue[K] {
	return c.rw.queue
}

// Trash returns accumulator of discarded values.
func (c *DualMap[K, V]) Trash() *TrashBin[K, V] {
	return c.rw.trash
}

// SetLoading marks following mutations as a part of bulk loading.
func (c *DualMap[K, V]) SetLoading(loading bool) {
	c.rw.SetLoading(loading)
}
