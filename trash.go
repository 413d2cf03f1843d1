package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

type trashItem[K comparable, V any] struct {
	key   K
	value V
}

// TrashBin accumulates discarded values to destroy them outside of cache lock.
//
// Values are added under cache lock and destroyed in batches of Threshold,
// every value is destroyed exactly once.
type TrashBin[K comparable, V any] struct {
	mu    sync.Mutex
	items []trashItem[K, V]

	threshold int
	destroy   func(key K, value V)
	destroyed atomic.Int64

	name string
	log  ctxd.Logger
	stat stats.Tracker
}

func newTrashBin[K comparable, V any](cfg Config, destroy func(key K, value V)) *TrashBin[K, V] {
	return &TrashBin[K, V]{
		threshold: cfg.TrashThreshold,
		destroy:   destroy,
		name:      cfg.Name,
		log:       cfg.Logger,
		stat:      cfg.Stats,
	}
}

func (t *TrashBin[K, V]) add(key K, value V) {
	t.mu.Lock()
	t.items = append(t.items, trashItem[K, V]{key: key, value: value})
	t.mu.Unlock()
}

// Len returns number of values waiting for destruction.
func (t *TrashBin[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.items)
}

// Destroyed returns total number of destroyed values.
func (t *TrashBin[K, V]) Destroyed() int64 {
	return t.destroyed.Load()
}

// Flush destroys all accumulated values and returns their number.
func (t *TrashBin[K, V]) Flush(ctx context.Context) int {
	t.mu.Lock()
	items := t.items
	t.items = nil
	t.mu.Unlock()

	if len(items) == 0 {
		return 0
	}

	if t.destroy != nil {
		for _, it := range items {
			t.destroy(it.key, it.value)
		}
	}

	t.destroyed.Add(int64(len(items)))
	t.stat.Add(ctx, MetricDestroy, float64(len(items)), "name", t.name)
	t.log.Debug(ctx, "destroyed discarded values", "name", t.name, "count", len(items))

	return len(items)
}

// collect flushes the bin once it reaches threshold, must be called without cache lock.
func (t *TrashBin[K, V]) collect(ctx context.Context) {
	t.mu.Lock()
	n := len(t.items)
	t.mu.Unlock()

	if n > 0 && n >= t.threshold {
		t.Flush(ctx)
	}
}
