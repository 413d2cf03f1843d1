package cache

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
	"github.com/vearutop/lazycache/ldc"
)

// DefaultMirrorShards is used if MirrorConfig.Shards is not set.
const DefaultMirrorShards = 8

const errNotResident = SentinelError("not resident")

// MirrorConfig controls Mirror instance.
type MirrorConfig struct {
	// Shards is a number of mirror shards, default DefaultMirrorShards.
	Shards int

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker
}

// MirrorCounts is a snapshot of mirror read outcomes.
type MirrorCounts struct {
	Hits     int64
	Misses   int64
	Bypasses int64
}

// discardNotifier is implemented by caches that report values leaving them.
type discardNotifier[K comparable] interface {
	onDiscard(fn func(key K, all bool))
}

type mirrorShard[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]V
}

// Mirror is a read-through decorator that keeps sharded copies of upstream values.
//
// Reads try shards starting from a random one without blocking and fall back to upstream
// if all shards are busy. Mutations go upstream and then purge every shard.
// Values leaving upstream for other reasons (capacity eviction, rebuild of stale value)
// are purged from shards before they are destroyed.
type Mirror[K comparable, V any] struct {
	upstream Cache[K, V]
	shards   []*mirrorShard[K, V]

	// epoch is incremented by every mutation, a read populates shard only if epoch did not change.
	epoch atomic.Uint64

	hits, misses, bypasses *xsync.Counter

	log  ctxd.Logger
	stat stats.Tracker
}

var _ Cache[string, int] = &Mirror[string, int]{}

// NewMirror creates a mirror of upstream cache.
func NewMirror[K comparable, V any](upstream Cache[K, V], cfg ...MirrorConfig) *Mirror[K, V] {
	c := MirrorConfig{}
	if len(cfg) >= 1 {
		c = cfg[0]
	}

	if c.Shards <= 0 {
		c.Shards = DefaultMirrorShards
	}

	m := &Mirror[K, V]{
		upstream: upstream,
		shards:   make([]*mirrorShard[K, V], c.Shards),
		hits:     new(xsync.Counter),
		misses:   new(xsync.Counter),
		bypasses: new(xsync.Counter),
		log:      c.Logger,
		stat:     c.Stats,
	}

	if m.log == nil {
		m.log = ctxd.NoOpLogger{}
	}

	if m.stat == nil {
		m.stat = stats.NoOp{}
	}

	for i := range m.shards {
		m.shards[i] = &mirrorShard[K, V]{data: make(map[K]V)}
	}

	if n, ok := upstream.(discardNotifier[K]); ok {
		n.onDiscard(m.purge)
	}

	return m
}

// Upstream returns mirrored cache.
func (m *Mirror[K, V]) Upstream() Cache[K, V] {
	return m.upstream
}

// Shards returns number of mirror shards.
func (m *Mirror[K, V]) Shards() int {
	return len(m.shards)
}

// Counts returns read outcomes.
func (m *Mirror[K, V]) Counts() MirrorCounts {
	return MirrorCounts{
		Hits:     m.hits.Value(),
		Misses:   m.misses.Value(),
		Bypasses: m.bypasses.Value(),
	}
}

// Name returns upstream name.
func (m *Mirror[K, V]) Name() string {
	return m.upstream.Name()
}

// Version returns upstream version.
func (m *Mirror[K, V]) Version() int {
	return m.upstream.Version()
}

// Len returns upstream length.
func (m *Mirror[K, V]) Len() int {
	return m.upstream.Len()
}

// Get returns value from a mirror shard or from upstream.
func (m *Mirror[K, V]) Get(ctx context.Context, key K) (V, error) {
	return m.read(ctx, key, func() (V, bool, error) {
		v, err := m.upstream.Get(ctx, key)

		return v, err == nil, err
	})
}

// GetIfResident returns value from a mirror shard or resident upstream value.
func (m *Mirror[K, V]) GetIfResident(ctx context.Context, key K) (V, bool) {
	v, err := m.read(ctx, key, func() (V, bool, error) {
		v, ok := m.upstream.GetIfResident(ctx, key)

		return v, ok, nil
	})

	return v, err == nil
}

func (m *Mirror[K, V]) read(ctx context.Context, key K, upstream func() (V, bool, error)) (V, error) {
	n := len(m.shards)
	start := rand.IntN(n) //nolint:gosec // Shard selection does not need crypto random.

	for i := 0; i < n; i++ {
		sh := m.shards[(start+i)%n]

		if !sh.mu.TryLock() {
			continue
		}

		if v, ok := sh.data[key]; ok {
			sh.mu.Unlock()
			m.hits.Inc()
			m.stat.Add(ctx, MetricMirrorHit, 1, "name", m.upstream.Name())

			return v, nil
		}

		sh.mu.Unlock()
		m.misses.Inc()
		m.stat.Add(ctx, MetricMirrorMiss, 1, "name", m.upstream.Name())

		e := m.epoch.Load()

		v, ok, err := upstream()
		if err != nil {
			return v, err
		}

		if !ok {
			return v, errNotResident
		}

		sh.mu.Lock()
		if m.epoch.Load() == e {
			sh.data[key] = v
		}
		sh.mu.Unlock()

		return v, nil
	}

	m.bypasses.Inc()
	m.stat.Add(ctx, MetricMirrorBypass, 1, "name", m.upstream.Name())
	m.log.Debug(ctx, "all mirror shards are busy", "name", m.upstream.Name(), "key", key)

	v, ok, err := upstream()
	if err == nil && !ok {
		err = errNotResident
	}

	return v, err
}

// purge drops mirrored values, all keys are dropped if all is true.
func (m *Mirror[K, V]) purge(key K, all bool) {
	m.epoch.Add(1)

	for _, sh := range m.shards {
		sh.mu.Lock()

		if all {
			sh.data = make(map[K]V)
		} else {
			delete(sh.data, key)
		}

		sh.mu.Unlock()
	}
}

func (m *Mirror[K, V]) onDiscard(fn func(key K, all bool)) {
	if n, ok := m.upstream.(discardNotifier[K]); ok {
		n.onDiscard(fn)
	}
}

// Put installs value upstream and purges mirrors of the key.
func (m *Mirror[K, V]) Put(ctx context.Context, key K, value V) {
	m.upstream.Put(ctx, key, value)
	m.purge(key, false)
}

// Invalidate removes key upstream and purges mirrors of the key.
func (m *Mirror[K, V]) Invalidate(ctx context.Context, key K) int {
	n := m.upstream.Invalidate(ctx, key)
	m.purge(key, false)

	return n
}

// Clear clears upstream and all mirrors.
func (m *Mirror[K, V]) Clear(ctx context.Context) int {
	n := m.upstream.Clear(ctx)

	var zero K

	m.purge(zero, true)

	return n
}

// Keys returns upstream keys.
func (m *Mirror[K, V]) Keys() []K {
	return m.upstream.Keys()
}

// PendingDeletes returns number of upstream values waiting for erasure by Consolidate.
func (m *Mirror[K, V]) PendingDeletes() int {
	if p, ok := m.upstream.(interface{ PendingDeletes() int }); ok {
		return p.PendingDeletes()
	}

	return 0
}

// ConsolidationSize returns upstream consolidation size.
func (m *Mirror[K, V]) ConsolidationSize() int {
	return m.upstream.ConsolidationSize()
}

// Consolidate consolidates upstream, mirrored values stay valid.
func (m *Mirror[K, V]) Consolidate(ctx context.Context, maxRecords int) int {
	return m.upstream.Consolidate(ctx, maxRecords)
}

// ActionQueue returns upstream write-behind queue.
func (m *Mirror[K, V]) ActionQueue() *ldc.ActionQueue[K] {
	return m.upstream.ActionQueue()
}

// Trash returns upstream accumulator of discarded values.
func (m *Mirror[K, V]) Trash() *TrashBin[K, V] {
	return m.upstream.Trash()
}
