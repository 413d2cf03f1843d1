package ldc

const (
	// MetricQueued is a name of metric to count enqueued operations.
	MetricQueued = "ldc_queued"

	// MetricWrite is a name of metric to count replayed writes.
	MetricWrite = "ldc_write"

	// MetricRemove is a name of metric to count replayed removals.
	MetricRemove = "ldc_remove"

	// MetricClear is a name of metric to count replayed clears.
	MetricClear = "ldc_clear"

	// MetricFailed is a name of metric to count failed operations.
	MetricFailed = "ldc_failed"

	// MetricQueueLen is a name of gauge with current queue length.
	MetricQueueLen = "ldc_queue_len"
)
