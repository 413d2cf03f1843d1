package cache

// LRU is a bounded cache that evicts least recently used values.
//
// Reads and writes move a key to the front of recency list. Capacity is enforced after
// insertion, exactly one value is evicted per insertion that overflows capacity.
type LRU[K comparable, V any] struct {
	*keyed[K, V]
}

var _ Cache[string, int] = &LRU[string, int]{}

// NewLRU creates a cache bounded by Config.Capacity.
func NewLRU[K comparable, V any](f Factory[K, V], cfg ...Config) *LRU[K, V] {
	b := newBase[K, V](f, cfg)

	return &LRU[K, V]{
		keyed: newKeyed[K, V](b, newEvictionOrder[K, V](b.config.Capacity, true, false)),
	}
}

// Capacity returns maximum number of resident values.
func (c *LRU[K, V]) Capacity() int {
	return c.order.capacity
}
