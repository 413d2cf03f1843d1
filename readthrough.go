package cache

import (
	"context"
	"fmt"

	"github.com/vearutop/lazycache/ldc"
)

// ReadThroughConfig controls ReadThrough factory.
type ReadThroughConfig[K comparable, V any] struct {
	// Remote is a store to check before construction.
	Remote ldc.Getter

	// Table is a name of cached table in remote store.
	Table string

	// EncodeKey converts key to remote key, fmt.Sprint by default.
	EncodeKey func(K) string

	// Codec decodes remote values, ldc.GobCodec by default.
	Codec ldc.Codec[V]
}

// ReadThrough wraps factory to load values from remote store before constructing them.
//
// Remote misses and decoding failures fall back to next factory.
// Validator and Destroyer of next factory are preserved, Recreator is exposed
// only if next factory implements it.
func ReadThrough[K comparable, V any](next Factory[K, V], cfg ReadThroughConfig[K, V]) Factory[K, V] {
	if cfg.EncodeKey == nil {
		cfg.EncodeKey = func(k K) string { return fmt.Sprint(k) }
	}

	if cfg.Codec == nil {
		cfg.Codec = ldc.GobCodec[V]{}
	}

	r := &readThrough[K, V]{next: next, config: cfg}

	if rc, ok := next.(Recreator[K, V]); ok {
		return &recreatingReadThrough[K, V]{readThrough: r, recreator: rc}
	}

	return r
}

type readThrough[K comparable, V any] struct {
	next   Factory[K, V]
	config ReadThroughConfig[K, V]
}

// Create loads value from remote store or constructs it.
func (r *readThrough[K, V]) Create(ctx context.Context, key K) (V, error) {
	if r.config.Remote != nil {
		if b, err := r.config.Remote.Get(ctx, r.config.Table, r.config.EncodeKey(key)); err == nil {
			if v, err := r.config.Codec.Unmarshal(b); err == nil {
				return v, nil
			}
		}
	}

	return r.next.Create(ctx, key)
}

// Validate delegates to next factory.
func (r *readThrough[K, V]) Validate(key K, value V) bool {
	if v, ok := r.next.(Validator[K, V]); ok {
		return v.Validate(key, value)
	}

	return true
}

// Destroy delegates to next factory.
func (r *readThrough[K, V]) Destroy(key K, value V) {
	if d, ok := r.next.(Destroyer[K, V]); ok {
		d.Destroy(key, value)
	}
}

type recreatingReadThrough[K comparable, V any] struct {
	*readThrough[K, V]

	recreator Recreator[K, V]
}

// Recreate delegates to next factory.
func (r *recreatingReadThrough[K, V]) Recreate(ctx context.Context, key K, existing V) (V, error) {
	return r.recreator.Recreate(ctx, key, existing)
}
