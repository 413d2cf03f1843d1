// Package cache provides lazily populated in-memory caches of shared values.
//
// Features:
//
//   - Values are built by a Factory on first access, concurrent callers of a missing key
//     trigger a single construction and wait for its result.
//   - Construction runs without cache locks and survives cancellation of the caller.
//   - Eviction policies: unbounded (Simple, Generic), least recently used (LRU),
//     insertion order (FIFO), two-tier with lock-free reads (DualMap).
//   - Mirror decorator reduces lock contention on hot keys with sharded copies.
//   - Discarded values are destroyed outside of cache locks in batches (TrashBin).
//   - Mutations are queued for write-behind persistence (see package ldc).
//   - Allows logging, stats collection.
package cache
