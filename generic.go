package cache

import (
	"context"
	"sync"
)

// Generic is an unbounded cache with monitor-based waiting.
//
// Callers waiting for values under construction sleep on a condition variable that is
// broadcast on every state change, each waiter rechecks its own key after wakeup.
// Placeholders are inserted under upgradable lock, so a checked absence is not lost
// between shared and exclusive phases. Invalidation waits for construction in progress.
type Generic[K comparable, V any] struct {
	*keyed[K, V]

	cond *sync.Cond
}

var _ Cache[string, int] = &Generic[string, int]{}

// NewGeneric creates an unbounded monitor-based cache.
func NewGeneric[K comparable, V any](f Factory[K, V], cfg ...Config) *Generic[K, V] {
	c := &Generic[K, V]{
		keyed: newKeyed[K, V](newBase[K, V](f, cfg), nil),
	}

	c.cond = sync.NewCond(c.mu)
	c.signal = c.cond.Broadcast

	return c
}

// Get returns value of a key, constructing it once for concurrent callers.
func (c *Generic[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V

	for {
		t := c.mu.RLock()
		s, found := c.data[key]

		if found && s.state == slotPresent {
			v := s.value
			c.mu.RUnlock(t)

			if c.valid(key, v) {
				c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)

				return v, nil
			}

			if ns := c.renew(ctx, s); ns != nil {
				return c.construct(ctx, ns, v, true)
			}

			continue
		}

		c.mu.RUnlock(t)

		t = c.mu.ULock()
		s, found = c.data[key]

		if !found {
			c.mu.Upgrade(t)
			s = newLoadingSlot[K, V](key)
			c.data[key] = s
			c.mu.Unlock()

			c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)

			return c.construct(ctx, s, zero, false)
		}

		loading := s.state == slotLoading
		c.mu.UUnlock(t)

		if loading {
			if err := c.await(ctx, s); err != nil {
				return zero, err
			}
		}
	}
}

// await sleeps until slot leaves loading state or ctx is done.
func (c *Generic[K, V]) await(ctx context.Context, s *slot[K, V]) error {
	c.stat.Add(ctx, MetricWait, 1, "name", c.config.Name)
	c.log.Debug(ctx, "waiting for cache value", "name", c.config.Name, "key", s.key)

	c.mu.Lock()
	stop := context.AfterFunc(ctx, c.wake)

	for s.state == slotLoading && ctx.Err() == nil {
		c.cond.Wait()
	}

	loading, err := s.state == slotLoading, s.err
	c.mu.Unlock()
	stop()

	if loading {
		return ctx.Err()
	}

	return err
}

func (c *Generic[K, V]) wake() {
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Invalidate waits for construction in progress and removes key.
//
// If ctx is done before construction finishes, construction is superseded.
func (c *Generic[K, V]) Invalidate(ctx context.Context, key K) int {
	c.mu.Lock()
	stop := context.AfterFunc(ctx, c.wake)

	for ctx.Err() == nil {
		s, found := c.data[key]
		if !found || s.state != slotLoading {
			break
		}

		c.cond.Wait()
	}

	n := c.remove(key)
	c.mu.Unlock()
	stop()

	c.afterRemove(ctx, key, n)

	return n
}
