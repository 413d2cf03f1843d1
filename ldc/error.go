package ldc

// SentinelError is an error.
type SentinelError string

const (
	// ErrNotFound indicates missing entry in a store.
	ErrNotFound = SentinelError("not found in store")

	// ErrValueNotResident indicates a queued write for a key that has no resident value anymore.
	ErrValueNotResident = SentinelError("value is not resident")

	// ErrKeyNotInitialized indicates an operation for a zero (bulk loading) key.
	ErrKeyNotInitialized = SentinelError("key is not initialized")

	// ErrInvalidTypeOptions indicates malformed cache type options.
	ErrInvalidTypeOptions = SentinelError("invalid cache type options")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
