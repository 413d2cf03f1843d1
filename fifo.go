package cache

// FIFO is a bounded cache that evicts oldest inserted values.
//
// Reads do not change eviction order, replacing a value keeps its position.
// Capacity is enforced before insertion, so cache never exceeds it.
type FIFO[K comparable, V any] struct {
	*keyed[K, V]
}

var _ Cache[string, int] = &FIFO[string, int]{}

// NewFIFO creates a cache bounded by Config.Capacity.
func NewFIFO[K comparable, V any](f Factory[K, V], cfg ...Config) *FIFO[K, V] {
	b := newBase[K, V](f, cfg)

	return &FIFO[K, V]{
		keyed: newKeyed[K, V](b, newEvictionOrder[K, V](b.config.Capacity, false, true)),
	}
}

// Capacity returns maximum number of resident values.
func (c *FIFO[K, V]) Capacity() int {
	return c.order.capacity
}
