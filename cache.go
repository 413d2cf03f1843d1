package cache

import (
	"context"

	"github.com/vearutop/lazycache/ldc"
)

// Cache is a lazily populated store of shared values.
type Cache[K comparable, V any] interface {
	// Name returns cache (table) name.
	Name() string

	// Version returns schema version of cached values.
	Version() int

	// Len returns number of resident values.
	Len() int

	// Get returns value of a key, constructing it with factory if it is missing.
	//
	// Concurrent calls for a missing key trigger a single construction, other callers
	// wait for its result or until ctx is done.
	Get(ctx context.Context, key K) (V, error)

	// GetIfResident returns value of a key without construction, keys under construction are reported missing.
	GetIfResident(ctx context.Context, key K) (V, bool)

	// Put installs value unconditionally, previous value is discarded.
	Put(ctx context.Context, key K, value V)

	// Invalidate removes key and returns number of removed values (0 or 1).
	Invalidate(ctx context.Context, key K) int

	// Clear removes all keys and returns number of removed values.
	Clear(ctx context.Context) int

	// Keys returns a snapshot of resident keys.
	Keys() []K

	// ConsolidationSize returns number of entries waiting for consolidation.
	ConsolidationSize() int

	// Consolidate moves up to maxRecords entries into read-optimized storage, returns number of moved entries.
	Consolidate(ctx context.Context, maxRecords int) int

	// ActionQueue returns write-behind queue of the cache.
	ActionQueue() *ldc.ActionQueue[K]

	// Trash returns accumulator of discarded values.
	Trash() *TrashBin[K, V]
}

// Factory builds values for keys.
type Factory[K comparable, V any] interface {
	Create(ctx context.Context, key K) (V, error)
}

// FactoryFunc implements Factory with a function.
type FactoryFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Create builds value.
func (f FactoryFunc[K, V]) Create(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}

// Validator is an optional Factory extension to detect stale values.
type Validator[K comparable, V any] interface {
	// Validate returns false if resident value must be rebuilt.
	Validate(key K, value V) bool
}

// Recreator is an optional Factory extension to rebuild stale values in place.
//
// Existing value is passed to Recreate and is not discarded by cache.
type Recreator[K comparable, V any] interface {
	Recreate(ctx context.Context, key K, existing V) (V, error)
}

// Destroyer is an optional Factory extension to release discarded values.
//
// Destroy is called once per discarded value, callers may still hold the value.
type Destroyer[K comparable, V any] interface {
	Destroy(key K, value V)
}
