package cache

// Simple is an unbounded cache without eviction.
//
// Callers waiting for a value under construction block on its completion.
// Invalidation of a key under construction supersedes it, the built value is discarded.
type Simple[K comparable, V any] struct {
	*keyed[K, V]
}

var _ Cache[string, int] = &Simple[string, int]{}

// NewSimple creates an unbounded cache.
func NewSimple[K comparable, V any](f Factory[K, V], cfg ...Config) *Simple[K, V] {
	return &Simple[K, V]{
		keyed: newKeyed[K, V](newBase[K, V](f, cfg), nil),
	}
}
