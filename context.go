package cache

import (
	"context"
)

type (
	skipQueueCtxKey struct{}
	loadingCtxKey   struct{}
	longLivedCtxKey struct{}
)

// WithSkipQueue returns context with write-behind queueing disabled.
//
// Mutations made with such context are not propagated to disk or distributed cache.
func WithSkipQueue(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipQueueCtxKey{}, true)
}

// SkipQueue returns true if write-behind queueing is disabled in context.
func SkipQueue(ctx context.Context) bool {
	_, ok := ctx.Value(skipQueueCtxKey{}).(bool)

	return ok
}

// WithLoading returns context that marks mutations as a part of bulk loading.
func WithLoading(ctx context.Context) context.Context {
	return context.WithValue(ctx, loadingCtxKey{}, true)
}

// Loading returns true if context belongs to bulk loading.
func Loading(ctx context.Context) bool {
	_, ok := ctx.Value(loadingCtxKey{}).(bool)

	return ok
}

// LongLived returns true if context belongs to a value construction made by cache.
//
// Values built in such context are retained by cache beyond the request that caused
// the miss, factories may use it to pick long-lived allocation strategy (pools, arenas).
func LongLived(ctx context.Context) bool {
	_, ok := ctx.Value(longLivedCtxKey{}).(bool)

	return ok
}

// buildScope detaches construction from caller cancellation, other callers may wait for the value.
func buildScope(ctx context.Context) context.Context {
	return context.WithValue(context.WithoutCancel(ctx), longLivedCtxKey{}, true)
}
