// Package ldc implements the write-behind side of the cache: a per-table queue of
// pending write, remove and clear operations and a drainer that replays them to the
// local disk cache and to the distributed cache tier.
//
// Cache mutations only enqueue operations; the queue has its own lock, so enqueueing
// never competes with the hot read path of the cache. Operations are replayed in push
// order, which preserves last-writer-wins semantics in the stores as long as a single
// drainer consumes a queue.
package ldc
