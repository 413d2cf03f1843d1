package ldc

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// Queue is a type-agnostic view of an action queue.
type Queue interface {
	Len() int
	Clear()
}

// QueueConfig controls action queue instance.
type QueueConfig struct {
	// Table is a name of cached table, used in operations, logs and stats.
	Table string

	// Options defines enabled persistence tiers, nil disables queueing.
	Options *TypeOptions

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Now returns operation timestamp, time.Now by default.
	Now func() time.Time
}

var _ Queue = &ActionQueue[string]{}

// ActionQueue is a FIFO of pending persistence operations of a single cache.
//
// It is guarded by its own mutex and never calls back into the cache.
type ActionQueue[K comparable] struct {
	mu   sync.Mutex
	ops  []Operation[K]
	head int

	config QueueConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewActionQueue creates an action queue.
func NewActionQueue[K comparable](cfg QueueConfig) *ActionQueue[K] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	q := &ActionQueue[K]{
		config: cfg,
		log:    cfg.Logger,
		stat:   cfg.Stats,
	}

	if q.log == nil {
		q.log = ctxd.NoOpLogger{}
	}

	if q.stat == nil {
		q.stat = stats.NoOp{}
	}

	return q
}

// Table returns table name.
func (q *ActionQueue[K]) Table() string {
	return q.config.Table
}

// Options returns persistence options of the table, can be nil.
func (q *ActionQueue[K]) Options() *TypeOptions {
	return q.config.Options
}

// QueueWrite enqueues a write of the key.
//
// Writes of a zero key are dropped, zero key is reserved for bulk loading.
func (q *ActionQueue[K]) QueueWrite(ctx context.Context, key K, whileLoading bool) {
	var zero K
	if key == zero {
		return
	}

	q.push(ctx, Write, key, whileLoading)
}

// QueueRemove enqueues removal of the key.
func (q *ActionQueue[K]) QueueRemove(ctx context.Context, key K, whileLoading bool) {
	q.push(ctx, Remove, key, whileLoading)
}

// QueueClear enqueues removal of all table entries.
func (q *ActionQueue[K]) QueueClear(ctx context.Context, whileLoading bool) {
	var zero K

	q.push(ctx, Clear, zero, whileLoading)
}

func (q *ActionQueue[K]) push(ctx context.Context, t OpType, key K, whileLoading bool) {
	o := q.config.Options
	if !o.Enabled() {
		return
	}

	op := Operation[K]{
		Table:        q.config.Table,
		Type:         t,
		Key:          key,
		WhileLoading: whileLoading,
		Time:         q.config.Now(),
		DistCache:    o.DistCacheEnabled(),
		LDC:          o.LDCEnabled(),
	}

	q.mu.Lock()
	q.ops = append(q.ops, op)
	n := len(q.ops) - q.head
	q.mu.Unlock()

	q.log.Debug(ctx, "queued ldc operation",
		"name", q.config.Table,
		"op", t.String(),
		"key", key,
		"len", n)
	q.stat.Add(ctx, MetricQueued, 1, "name", q.config.Table, "op", t.String())
}

// Next pops the oldest operation into target and reports if there was one.
func (q *ActionQueue[K]) Next(target *Operation[K]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.ops) {
		return false
	}

	*target = q.ops[q.head]
	q.ops[q.head] = Operation[K]{}
	q.head++

	// Compacting consumed prefix once it dominates the buffer.
	if q.head == len(q.ops) {
		q.ops = q.ops[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.ops) {
		n := copy(q.ops, q.ops[q.head:])
		q.ops = q.ops[:n]
		q.head = 0
	}

	return true
}

// Len returns number of pending operations.
func (q *ActionQueue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ops) - q.head
}

// Clear drops all pending operations.
func (q *ActionQueue[K]) Clear() {
	q.mu.Lock()
	q.ops = nil
	q.head = 0
	q.mu.Unlock()
}
