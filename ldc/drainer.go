package ldc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// ErrBlobTooLarge indicates encoded value exceeding TypeOptions.MaxBlobSize.
const ErrBlobTooLarge = SentinelError("encoded value is too large")

// Source provides current values of queued keys.
type Source[K comparable, V any] interface {
	GetIfResident(ctx context.Context, key K) (V, bool)
}

// DrainerConfig controls Drainer instance.
type DrainerConfig struct {
	// Disk is a local disk cache store, NoOpStore by default.
	Disk Store

	// Dist is a distributed cache store, NoOpStore by default.
	Dist Store

	// PollInterval is a delay between queue checks in Run, default 100ms.
	PollInterval time.Duration

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker
}

// OperationCounts is a snapshot of replay results.
type OperationCounts struct {
	GoodWrites  int64
	BadWrites   int64
	GoodRemoves int64
	BadRemoves  int64
	GoodClears  int64
	BadClears   int64
}

// Total returns number of processed operations.
func (c OperationCounts) Total() int64 {
	return c.GoodWrites + c.BadWrites + c.GoodRemoves + c.BadRemoves + c.GoodClears + c.BadClears
}

// Drainer replays queued operations to stores.
//
// Replay order matches queue order only with a single Drainer per queue.
type Drainer[K comparable, V any] struct {
	queue     *ActionQueue[K]
	source    Source[K, V]
	codec     Codec[V]
	encodeKey func(K) string

	config DrainerConfig
	log    ctxd.Logger
	stat   stats.Tracker

	goodWrites, badWrites   *xsync.Counter
	goodRemoves, badRemoves *xsync.Counter
	goodClears, badClears   *xsync.Counter
}

// NewDrainer creates a drainer of a queue.
//
// Values of written keys are read from source and encoded with codec,
// keys are converted to strings with encodeKey (fmt.Sprint if nil).
func NewDrainer[K comparable, V any](
	queue *ActionQueue[K],
	source Source[K, V],
	codec Codec[V],
	encodeKey func(K) string,
	cfg DrainerConfig,
) *Drainer[K, V] {
	if cfg.Disk == nil {
		cfg.Disk = NoOpStore{}
	}

	if cfg.Dist == nil {
		cfg.Dist = NoOpStore{}
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	if encodeKey == nil {
		encodeKey = func(k K) string { return fmt.Sprint(k) }
	}

	if codec == nil {
		codec = GobCodec[V]{}
	}

	d := &Drainer[K, V]{
		queue:     queue,
		source:    source,
		codec:     codec,
		encodeKey: encodeKey,
		config:    cfg,
		log:       cfg.Logger,
		stat:      cfg.Stats,

		goodWrites:  new(xsync.Counter),
		badWrites:   new(xsync.Counter),
		goodRemoves: new(xsync.Counter),
		badRemoves:  new(xsync.Counter),
		goodClears:  new(xsync.Counter),
		badClears:   new(xsync.Counter),
	}

	if d.log == nil {
		d.log = ctxd.NoOpLogger{}
	}

	if d.stat == nil {
		d.stat = stats.NoOp{}
	}

	return d
}

// Counts returns replay counters.
func (d *Drainer[K, V]) Counts() OperationCounts {
	return OperationCounts{
		GoodWrites:  d.goodWrites.Value(),
		BadWrites:   d.badWrites.Value(),
		GoodRemoves: d.goodRemoves.Value(),
		BadRemoves:  d.badRemoves.Value(),
		GoodClears:  d.goodClears.Value(),
		BadClears:   d.badClears.Value(),
	}
}

// ProcessNext replays the oldest queued operation and reports if there was one.
func (d *Drainer[K, V]) ProcessNext(ctx context.Context) bool {
	var op Operation[K]

	if !d.queue.Next(&op) {
		return false
	}

	table := d.queue.Table()

	switch op.Type {
	case Write:
		if err := d.write(ctx, op); err != nil {
			d.fail(ctx, op, err)
			d.badWrites.Inc()
		} else {
			d.stat.Add(ctx, MetricWrite, 1, "name", table)
			d.goodWrites.Inc()
		}
	case Remove:
		if err := d.remove(ctx, op); err != nil {
			d.fail(ctx, op, err)
			d.badRemoves.Inc()
		} else {
			d.stat.Add(ctx, MetricRemove, 1, "name", table)
			d.goodRemoves.Inc()
		}
	case Clear:
		if err := d.clear(ctx, op); err != nil {
			d.fail(ctx, op, err)
			d.badClears.Inc()
		} else {
			d.stat.Add(ctx, MetricClear, 1, "name", table)
			d.goodClears.Inc()
		}
	default:
		d.log.Warn(ctx, "unsupported ldc operation", "name", table, "op", op.Type.String())
	}

	return true
}

// Drain replays all queued operations and returns their number.
func (d *Drainer[K, V]) Drain(ctx context.Context) int {
	n := 0

	for ctx.Err() == nil && d.ProcessNext(ctx) {
		n++
	}

	return n
}

// Run drains the queue periodically until ctx is done.
func (d *Drainer[K, V]) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := d.Drain(ctx); n > 0 {
				d.log.Debug(ctx, "drained ldc queue", "name", d.queue.Table(), "count", n)
			}

			d.stat.Set(ctx, MetricQueueLen, float64(d.queue.Len()), "name", d.queue.Table())
		case <-ctx.Done():
			return
		}
	}
}

func (d *Drainer[K, V]) fail(ctx context.Context, op Operation[K], err error) {
	d.log.Error(ctx, "failed to replay ldc operation",
		"error", err,
		"name", op.Table,
		"op", op.Type.String(),
		"key", op.Key)
	d.stat.Add(ctx, MetricFailed, 1, "name", op.Table, "op", op.Type.String())
}

// distributed tier is skipped for bulk loaded values, they came from it.
func (d *Drainer[K, V]) toDist(op Operation[K]) bool {
	return op.DistCache && !op.WhileLoading && d.queue.Options().DistCacheEnabled()
}

func (d *Drainer[K, V]) toDisk(op Operation[K]) bool {
	return op.LDC && d.queue.Options().LDCEnabled()
}

func (d *Drainer[K, V]) write(ctx context.Context, op Operation[K]) error {
	var zero K
	if op.Key == zero {
		return ErrKeyNotInitialized
	}

	v, ok := d.source.GetIfResident(ctx, op.Key)
	if !ok {
		return ErrValueNotResident
	}

	data, err := d.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	opts := d.queue.Options()
	if opts.MaxBlobSize > 0 && len(data) > opts.MaxBlobSize {
		return fmt.Errorf("%w: %d bytes", ErrBlobTooLarge, len(data))
	}

	key := d.encodeKey(op.Key)

	var errs []error

	if d.toDisk(op) {
		if err := d.config.Disk.Put(ctx, op.Table, key, data, 0); err != nil {
			errs = append(errs, fmt.Errorf("disk: %w", err))
		}
	}

	if d.toDist(op) {
		if err := d.config.Dist.Put(ctx, op.Table, key, data, opts.TTL); err != nil {
			errs = append(errs, fmt.Errorf("dist: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (d *Drainer[K, V]) remove(ctx context.Context, op Operation[K]) error {
	var zero K
	if op.Key == zero {
		return ErrKeyNotInitialized
	}

	key := d.encodeKey(op.Key)

	var errs []error

	if d.toDisk(op) {
		if err := d.config.Disk.Delete(ctx, op.Table, key); err != nil {
			errs = append(errs, fmt.Errorf("disk: %w", err))
		}
	}

	if d.toDist(op) {
		if err := d.config.Dist.Delete(ctx, op.Table, key); err != nil {
			errs = append(errs, fmt.Errorf("dist: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (d *Drainer[K, V]) clear(ctx context.Context, op Operation[K]) error {
	var errs []error

	if d.toDisk(op) {
		if err := d.config.Disk.Truncate(ctx, op.Table); err != nil {
			// Disk content can not be trusted after failed truncate.
			d.queue.Options().DisableLDC()
			d.log.Error(ctx, "disabling ldc due to truncate failure", "name", op.Table, "error", err)

			errs = append(errs, fmt.Errorf("disk: %w", err))
		}
	}

	if d.toDist(op) {
		if err := d.config.Dist.Truncate(ctx, op.Table); err != nil {
			errs = append(errs, fmt.Errorf("dist: %w", err))
		}
	}

	return errors.Join(errs...)
}
