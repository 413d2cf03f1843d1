package factory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	cache "github.com/vearutop/lazycache"
	"github.com/vearutop/lazycache/ldc"
)

// Entry is a type-agnostic view of a registered cache.
type Entry interface {
	Name() string
	Len() int
	Clear(ctx context.Context) int
	ConsolidationSize() int
	Consolidate(ctx context.Context, maxRecords int) int
}

type registered struct {
	entry Entry
	queue ldc.Queue

	// typed is cache.Cache[K, V] of the entry.
	typed interface{}
}

// RegistryConfig controls Registry instance.
type RegistryConfig struct {
	// InvalidateSkipInterval is a minimal interval between two ClearAll calls, default 15s.
	InvalidateSkipInterval time.Duration

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker
}

// Registry keeps named caches of a process.
type Registry struct {
	mu     sync.Mutex
	caches map[string]registered

	invalidator *cache.Invalidator

	log  ctxd.Logger
	stat stats.Tracker
}

// NewRegistry creates a registry.
func NewRegistry(cfg ...RegistryConfig) *Registry {
	c := RegistryConfig{}
	if len(cfg) >= 1 {
		c = cfg[0]
	}

	r := &Registry{
		caches:      make(map[string]registered),
		invalidator: &cache.Invalidator{SkipInterval: c.InvalidateSkipInterval},
		log:         c.Logger,
		stat:        c.Stats,
	}

	if r.log == nil {
		r.log = ctxd.NoOpLogger{}
	}

	if r.stat == nil {
		r.stat = stats.NoOp{}
	}

	return r
}

// Register adds cache to registry.
func Register[K comparable, V any](r *Registry, c cache.Cache[K, V]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.caches[c.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, c.Name())
	}

	r.caches[c.Name()] = registered{
		entry: c,
		queue: c.ActionQueue(),
		typed: c,
	}
	r.invalidator.Add(c)

	return nil
}

// Lookup returns registered cache of given key and value types.
func Lookup[K comparable, V any](r *Registry, name string) (cache.Cache[K, V], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.caches[name]
	if !ok {
		return nil, false
	}

	c, ok := e.typed.(cache.Cache[K, V])

	return c, ok
}

// Get returns registered cache.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.caches[name]

	return e.entry, ok
}

// Names returns sorted names of registered caches.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) snapshot() []registered {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]registered, 0, len(r.caches))
	for _, e := range r.caches {
		res = append(res, e)
	}

	return res
}

// SizeAllQueues returns total number of pending write-behind operations.
func (r *Registry) SizeAllQueues() int {
	n := 0

	for _, e := range r.snapshot() {
		n += e.queue.Len()
	}

	return n
}

// ClearAllQueues drops all pending write-behind operations.
func (r *Registry) ClearAllQueues(ctx context.Context) {
	for _, e := range r.snapshot() {
		if n := e.queue.Len(); n > 0 {
			r.log.Warn(ctx, "dropping pending ldc operations", "name", e.entry.Name(), "count", n)
		}

		e.queue.Clear()
	}
}

// WaitForQueuesToSubside blocks until all write-behind queues are empty or ctx is done.
func (r *Registry) WaitForQueuesToSubside(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		n := r.SizeAllQueues()
		if n == 0 {
			return nil
		}

		r.log.Debug(ctx, "waiting for ldc queues to subside", "pending", n)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctxd.WrapError(ctx, ctx.Err(), "ldc queues did not subside", "pending", n)
		}
	}
}

// ClearAll clears every registered cache, repeated calls within skip interval fail.
func (r *Registry) ClearAll(ctx context.Context) (int, error) {
	n, err := r.invalidator.Invalidate(ctx)
	if err != nil {
		return 0, err
	}

	r.log.Info(ctx, "cleared all caches", "count", n)

	return n, nil
}

// pendingDeleter is implemented by caches that erase invalidated values on consolidation.
type pendingDeleter interface {
	PendingDeletes() int
}

// ConsolidateAll consolidates every registered cache with up to maxRecords moved values per cache.
//
// Caches with invalidated values waiting for erasure are consolidated even if they have nothing to move.
func (r *Registry) ConsolidateAll(ctx context.Context, maxRecords int) int {
	n := 0

	for _, e := range r.snapshot() {
		pending := 0
		if p, ok := e.entry.(pendingDeleter); ok {
			pending = p.PendingDeletes()
		}

		if e.entry.ConsolidationSize() > 0 || pending > 0 {
			n += e.entry.Consolidate(ctx, maxRecords)
		}
	}

	return n
}

// ReportStats sets gauges of resident values and pending operations.
func (r *Registry) ReportStats(ctx context.Context) {
	for _, e := range r.snapshot() {
		name := e.entry.Name()

		r.stat.Set(ctx, cache.MetricItems, float64(e.entry.Len()), "name", name)
		r.stat.Set(ctx, ldc.MetricQueueLen, float64(e.queue.Len()), "name", name)
	}
}
