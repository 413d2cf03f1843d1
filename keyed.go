package cache

import (
	"container/list"
	"context"
	"sync"
)

// evictionOrder tracks resident slots of a bounded cache.
//
// Front of the list is the newest (or most recently used) slot, victims are taken from the back.
type evictionOrder[K comparable, V any] struct {
	// mu serializes reordering on hits, which happen under shared cache lock.
	mu   sync.Mutex
	list *list.List

	capacity          int
	touchOnHit        bool
	evictBeforeInsert bool
}

func newEvictionOrder[K comparable, V any](capacity int, touchOnHit, evictBeforeInsert bool) *evictionOrder[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &evictionOrder[K, V]{
		list:              list.New(),
		capacity:          capacity,
		touchOnHit:        touchOnHit,
		evictBeforeInsert: evictBeforeInsert,
	}
}

// admit puts slot to the front, exclusive cache lock is required.
func (o *evictionOrder[K, V]) admit(s *slot[K, V]) {
	s.elem = o.list.PushFront(s)
}

// touch marks a hit, shared cache lock is required.
func (o *evictionOrder[K, V]) touch(s *slot[K, V]) {
	if !o.touchOnHit || s.elem == nil {
		return
	}

	o.mu.Lock()
	o.list.MoveToFront(s.elem)
	o.mu.Unlock()
}

// replace passes position of old slot to a new one, exclusive cache lock is required.
func (o *evictionOrder[K, V]) replace(old, s *slot[K, V]) {
	if old.elem == nil {
		o.admit(s)

		return
	}

	s.elem = old.elem
	s.elem.Value = s
	old.elem = nil

	if o.touchOnHit {
		o.list.MoveToFront(s.elem)
	}
}

func (o *evictionOrder[K, V]) unlink(s *slot[K, V]) {
	if s.elem != nil {
		o.list.Remove(s.elem)
		s.elem = nil
	}
}

func (o *evictionOrder[K, V]) victim() *slot[K, V] {
	e := o.list.Back()
	if e == nil {
		return nil
	}

	return e.Value.(*slot[K, V]) //nolint:forcetypeassert // Only slots are stored.
}

func (o *evictionOrder[K, V]) reset() {
	o.list.Init()
}

// keyed is a map of slots with single-flight loading, it backs every keyed cache variant.
type keyed[K comparable, V any] struct {
	*base[K, V]

	mu       *upgradableLock
	data     map[K]*slot[K, V]
	resident int

	// order is nil for unbounded caches.
	order *evictionOrder[K, V]

	// lookaside is checked under exclusive lock before a placeholder is inserted,
	// a stale value it reports is retired by it and rebuilt by caller.
	lookaside func(key K) (v V, found, stale bool)

	// signal is called under exclusive lock after slot state changes.
	signal func()
}

func newKeyed[K comparable, V any](b *base[K, V], order *evictionOrder[K, V]) *keyed[K, V] {
	return &keyed[K, V]{
		base:  b,
		mu:    newUpgradableLock(),
		data:  make(map[K]*slot[K, V]),
		order: order,
	}
}

// Len returns number of resident values.
func (c *keyed[K, V]) Len() int {
	t := c.mu.RLock()
	defer c.mu.RUnlock(t)

	return c.resident
}

// Keys returns a snapshot of resident keys.
func (c *keyed[K, V]) Keys() []K {
	t := c.mu.RLock()
	defer c.mu.RUnlock(t)

	keys := make([]K, 0, c.resident)

	for k, s := range c.data {
		if s.state == slotPresent {
			keys = append(keys, k)
		}
	}

	return keys
}

// GetIfResident returns value if it is present.
func (c *keyed[K, V]) GetIfResident(ctx context.Context, key K) (V, bool) {
	t := c.mu.RLock()

	if s, ok := c.data[key]; ok && s.state == slotPresent {
		v := s.value

		if c.order != nil {
			c.order.touch(s)
		}

		c.mu.RUnlock(t)
		c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)

		return v, true
	}

	c.mu.RUnlock(t)

	var v V

	return v, false
}

// Get returns value of a key, constructing it once for concurrent callers.
func (c *keyed[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V

	for {
		t := c.mu.RLock()
		s, found := c.data[key]

		if found && s.state == slotPresent {
			v := s.value

			if c.order != nil {
				c.order.touch(s)
			}

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

		if found {
			if err := c.wait(ctx, key, s.done); err != nil {
				return zero, err
			}

			t = c.mu.RLock()
			err := s.err
			c.mu.RUnlock(t)

			if err != nil {
				return zero, err
			}

			continue
		}

		c.mu.Lock()

		if _, found = c.data[key]; found {
			c.mu.Unlock()

			continue
		}

		existing, recreate := zero, false

		if c.lookaside != nil {
			v, ok, stale := c.lookaside(key)
			if ok {
				c.mu.Unlock()
				c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)

				return v, nil
			}

			existing, recreate = v, stale
		}

		s = newLoadingSlot[K, V](key)
		c.data[key] = s
		c.mu.Unlock()

		if recreate {
			c.log.Debug(ctx, "rebuilding stale cache value", "name", c.config.Name, "key", key)
			c.trash.collect(ctx)
		} else {
			c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)
		}

		return c.construct(ctx, s, existing, recreate)
	}
}

// renew replaces a stale resident slot with a placeholder owned by caller.
//
// It returns nil if slot was changed concurrently.
func (c *keyed[K, V]) renew(ctx context.Context, s *slot[K, V]) *slot[K, V] {
	c.mu.Lock()

	if cur, ok := c.data[s.key]; !ok || cur != s || s.state != slotPresent {
		c.mu.Unlock()

		return nil
	}

	c.detach(s)
	c.discarded(s.key, false)

	// Stale value is handed to Recreate and stays with factory.
	if c.recreator == nil {
		c.trash.add(s.key, s.value)
	}

	ns := newLoadingSlot[K, V](s.key)
	c.data[s.key] = ns
	c.mu.Unlock()

	c.log.Debug(ctx, "rebuilding stale cache value", "name", c.config.Name, "key", s.key)
	c.trash.collect(ctx)

	return ns
}

// construct builds value of a placeholder slot owned by caller.
func (c *keyed[K, V]) construct(ctx context.Context, s *slot[K, V], existing V, recreate bool) (V, error) {
	var err error

	g := loadGuard{rollback: func() { c.abandon(s, err) }}
	defer g.release()

	v, err := c.build(ctx, s.key, existing, recreate)
	if err != nil {
		return v, err
	}

	installed := c.publish(ctx, s, v)

	g.commit()

	if installed {
		c.queueWrite(ctx, s.key)
	}

	c.trash.collect(ctx)

	return v, nil
}

// abandon removes failed placeholder and wakes waiters with the error.
func (c *keyed[K, V]) abandon(s *slot[K, V], err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s.state = slotEvicted

	// Waiters of a superseded placeholder retry.
	if cur, ok := c.data[s.key]; ok && cur == s {
		delete(c.data, s.key)

		if err == nil {
			err = ErrAbandoned
		}

		s.err = err
	}

	close(s.done)

	c.notify()
}

// publish installs built value unless placeholder was superseded, it reports installation.
func (c *keyed[K, V]) publish(ctx context.Context, s *slot[K, V], v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s.value = v
	installed := false

	if cur, ok := c.data[s.key]; ok && cur == s {
		c.admit(ctx, s)

		installed = true
	} else {
		// Invalidated or replaced while building.
		s.state = slotEvicted
		c.trash.add(s.key, v)
	}

	close(s.done)
	c.notify()

	return installed
}

func (c *keyed[K, V]) notify() {
	if c.signal != nil {
		c.signal()
	}
}

// admit makes slot resident and enforces capacity, exclusive lock is required.
func (c *keyed[K, V]) admit(ctx context.Context, s *slot[K, V]) {
	o := c.order

	if o != nil && o.evictBeforeInsert {
		for c.resident >= o.capacity {
			if !c.evictOne(ctx) {
				break
			}
		}
	}

	s.state = slotPresent
	c.resident++

	if o == nil {
		return
	}

	o.admit(s)

	if !o.evictBeforeInsert && c.resident > o.capacity {
		c.evictOne(ctx)
	}
}

// evictOne moves a victim of eviction order to trash, exclusive lock is required.
func (c *keyed[K, V]) evictOne(ctx context.Context) bool {
	s := c.order.victim()
	if s == nil {
		return false
	}

	delete(c.data, s.key)
	c.detach(s)
	c.discarded(s.key, false)
	c.trash.add(s.key, s.value)

	c.stat.Add(ctx, MetricEvict, 1, "name", c.config.Name)
	c.log.Debug(ctx, "evicted cache value", "name", c.config.Name, "key", s.key)

	return true
}

// detach marks resident slot evicted, map entry is left to caller.
func (c *keyed[K, V]) detach(s *slot[K, V]) {
	if c.order != nil {
		c.order.unlink(s)
	}

	s.state = slotEvicted
	c.resident--
}

// Put installs value and queues its write.
func (c *keyed[K, V]) Put(ctx context.Context, key K, value V) {
	c.mu.Lock()
	c.put(ctx, key, value)
	c.mu.Unlock()

	c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	c.queueWrite(ctx, key)
	c.trash.collect(ctx)
}

// put installs value, exclusive lock is required.
func (c *keyed[K, V]) put(ctx context.Context, key K, value V) {
	ns := &slot[K, V]{key: key, state: slotPresent, value: value}
	s, found := c.data[key]
	c.data[key] = ns

	if found && s.state == slotPresent {
		if c.order != nil {
			c.order.replace(s, ns)
		}

		s.state = slotEvicted
		c.discarded(key, false)
		c.trash.add(key, s.value)
		c.notify()

		return
	}

	// A placeholder, if any, is superseded and its value is discarded on publish.
	c.admit(ctx, ns)
	c.notify()
}

// Invalidate removes key and queues its removal.
func (c *keyed[K, V]) Invalidate(ctx context.Context, key K) int {
	c.mu.Lock()
	n := c.remove(key)
	c.mu.Unlock()

	c.afterRemove(ctx, key, n)

	return n
}

// remove deletes key, exclusive lock is required.
func (c *keyed[K, V]) remove(key K) int {
	s, found := c.data[key]
	if !found {
		return 0
	}

	delete(c.data, key)
	c.notify()

	// Construction in progress is superseded.
	if s.state != slotPresent {
		return 0
	}

	c.detach(s)
	c.discarded(key, false)
	c.trash.add(key, s.value)

	return 1
}

// afterRemove finishes invalidation outside of lock.
func (c *keyed[K, V]) afterRemove(ctx context.Context, key K, n int) {
	if n > 0 {
		c.stat.Add(ctx, MetricInvalidate, float64(n), "name", c.config.Name)
	}

	c.queueRemove(ctx, key)
	c.trash.collect(ctx)
}

// Clear removes all keys and queues table clear.
func (c *keyed[K, V]) Clear(ctx context.Context) int {
	c.mu.Lock()
	n := c.clear()
	c.mu.Unlock()

	c.afterClear(ctx, n)

	return n
}

// clear removes all slots, exclusive lock is required.
func (c *keyed[K, V]) clear() int {
	n := 0

	for k, s := range c.data {
		if s.state == slotPresent {
			s.state = slotEvicted
			c.trash.add(k, s.value)
			n++
		}

		s.elem = nil
	}

	c.data = make(map[K]*slot[K, V])
	c.resident = 0

	var zero K

	c.discarded(zero, true)

	if c.order != nil {
		c.order.reset()
	}

	c.notify()

	return n
}

func (c *keyed[K, V]) afterClear(ctx context.Context, n int) {
	c.stat.Add(ctx, MetricClear, 1, "name", c.config.Name)
	c.log.Debug(ctx, "cleared cache", "name", c.config.Name, "count", n)

	c.queueClear(ctx)
	c.trash.collect(ctx)
}
