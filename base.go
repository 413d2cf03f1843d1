package cache

import (
	"context"
	"sync/atomic"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/vearutop/lazycache/ldc"
)

// base holds bookkeeping shared by cache variants.
type base[K comparable, V any] struct {
	config    Config
	factory   Factory[K, V]
	validator Validator[K, V]
	recreator Recreator[K, V]

	queue   *ldc.ActionQueue[K]
	trash   *TrashBin[K, V]
	loading atomic.Bool

	// discardHooks are set before cache is shared and called under cache lock.
	discardHooks []func(key K, all bool)

	log  ctxd.Logger
	stat stats.Tracker
}

func newBase[K comparable, V any](f Factory[K, V], cfg []Config) *base[K, V] {
	c := config(cfg)

	b := &base[K, V]{
		config:  c,
		factory: f,
		log:     c.Logger,
		stat:    c.Stats,
	}

	if v, ok := f.(Validator[K, V]); ok {
		b.validator = v
	}

	if r, ok := f.(Recreator[K, V]); ok {
		b.recreator = r
	}

	var destroy func(key K, value V)
	if d, ok := f.(Destroyer[K, V]); ok {
		destroy = d.Destroy
	}

	b.trash = newTrashBin[K, V](c, destroy)
	b.queue = ldc.NewActionQueue[K](ldc.QueueConfig{
		Table:   c.Name,
		Options: c.Options,
		Logger:  c.Logger,
		Stats:   c.Stats,
	})

	return b
}

// Name returns cache name.
func (b *base[K, V]) Name() string {
	return b.config.Name
}

// Version returns schema version of cached values.
func (b *base[K, V]) Version() int {
	return b.config.Version
}

// ActionQueue returns write-behind queue.
func (b *base[K, V]) ActionQueue() *ldc.ActionQueue[K] {
	return b.queue
}

// Trash returns accumulator of discarded values.
func (b *base[K, V]) Trash() *TrashBin[K, V] {
	return b.trash
}

// onDiscard registers a hook called under cache lock whenever a resident value leaves cache,
// all is true when cache is cleared. Hook must not call back into cache.
func (b *base[K, V]) onDiscard(fn func(key K, all bool)) {
	b.discardHooks = append(b.discardHooks, fn)
}

func (b *base[K, V]) discarded(key K, all bool) {
	for _, fn := range b.discardHooks {
		fn(key, all)
	}
}

// SetLoading marks following mutations as a part of bulk loading.
func (b *base[K, V]) SetLoading(loading bool) {
	b.loading.Store(loading)
}

// ConsolidationSize returns 0, cache has single tier.
func (b *base[K, V]) ConsolidationSize() int {
	return 0
}

// Consolidate does nothing, cache has single tier.
func (b *base[K, V]) Consolidate(_ context.Context, _ int) int {
	return 0
}

func (b *base[K, V]) whileLoading(ctx context.Context) bool {
	return b.loading.Load() || Loading(ctx)
}

func (b *base[K, V]) queueWrite(ctx context.Context, key K) {
	if SkipQueue(ctx) {
		return
	}

	b.queue.QueueWrite(ctx, key, b.whileLoading(ctx))
}

func (b *base[K, V]) queueRemove(ctx context.Context, key K) {
	if SkipQueue(ctx) {
		return
	}

	b.queue.QueueRemove(ctx, key, b.whileLoading(ctx))
}

func (b *base[K, V]) queueClear(ctx context.Context) {
	if SkipQueue(ctx) {
		return
	}

	b.queue.QueueClear(ctx, b.whileLoading(ctx))
}

func (b *base[K, V]) valid(key K, value V) bool {
	return b.validator == nil || b.validator.Validate(key, value)
}

// build invokes factory without holding cache locks.
func (b *base[K, V]) build(ctx context.Context, key K, existing V, recreate bool) (V, error) {
	var (
		v   V
		err error
	)

	if b.factory == nil {
		return v, ErrNoFactory
	}

	b.stat.Add(ctx, MetricBuild, 1, "name", b.config.Name)
	b.log.Debug(ctx, "building cache value", "name", b.config.Name, "key", key)

	bctx := buildScope(ctx)

	if recreate && b.recreator != nil {
		v, err = b.recreator.Recreate(bctx, key, existing)
	} else {
		v, err = b.factory.Create(bctx, key)
	}

	if err != nil {
		b.stat.Add(ctx, MetricFailed, 1, "name", b.config.Name)
		b.log.Warn(ctx, "failed to build cache value", "name", b.config.Name, "key", key, "error", err)

		return v, ctxd.WrapError(ctx, err, "failed to build cache value", "name", b.config.Name, "key", key)
	}

	return v, nil
}

// wait blocks until loading is done or ctx is cancelled.
func (b *base[K, V]) wait(ctx context.Context, key K, done <-chan struct{}) error {
	b.stat.Add(ctx, MetricWait, 1, "name", b.config.Name)
	b.log.Debug(ctx, "waiting for cache value", "name", b.config.Name, "key", key)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
