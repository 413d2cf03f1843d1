package cache

// SentinelError is an error.
type SentinelError string

const (
	// ErrNoFactory indicates construction attempt in a cache without factory.
	ErrNoFactory = SentinelError("cache has no value factory")

	// ErrAbandoned indicates value construction that ended without result, for example with a panic.
	ErrAbandoned = SentinelError("value construction abandoned")

	// ErrNothingToInvalidate indicates no caches were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
