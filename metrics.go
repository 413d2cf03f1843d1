package cache

const (
	// MetricHit is a name of metric to count cache hits.
	MetricHit = "cache_hit"

	// MetricMiss is a name of metric to count cache misses.
	MetricMiss = "cache_miss"

	// MetricWait is a name of metric to count waits for value under construction.
	MetricWait = "cache_wait"

	// MetricBuild is a name of metric to count value constructions.
	MetricBuild = "cache_build"

	// MetricFailed is a name of metric to count failed value constructions.
	MetricFailed = "cache_failed"

	// MetricWrite is a name of metric to count writes.
	MetricWrite = "cache_write"

	// MetricEvict is a name of metric to count capacity evictions.
	MetricEvict = "cache_evict"

	// MetricInvalidate is a name of metric to count invalidated entries.
	MetricInvalidate = "cache_invalidate"

	// MetricClear is a name of metric to count cache clears.
	MetricClear = "cache_clear"

	// MetricDestroy is a name of metric to count destroyed values.
	MetricDestroy = "cache_destroy"

	// MetricItems is a name of gauge to count resident values.
	MetricItems = "cache_items"

	// MetricConsolidate is a name of metric to count entries moved by consolidation.
	MetricConsolidate = "cache_consolidate"

	// MetricMirrorHit is a name of metric to count mirror shard hits.
	MetricMirrorHit = "mirror_hit"

	// MetricMirrorMiss is a name of metric to count mirror shard misses.
	MetricMirrorMiss = "mirror_miss"

	// MetricMirrorBypass is a name of metric to count reads with all shards busy.
	MetricMirrorBypass = "mirror_bypass"
)
