package ldc

import (
	"context"
	"time"
)

// Store receives replayed operations.
type Store interface {
	// Put stores encoded value of table key.
	Put(ctx context.Context, table, key string, value []byte, ttl time.Duration) error

	// Delete removes table key, missing key is not an error.
	Delete(ctx context.Context, table, key string) error

	// Truncate removes all keys of table.
	Truncate(ctx context.Context, table string) error
}

// Getter reads stored values.
type Getter interface {
	// Get returns encoded value or ErrNotFound.
	Get(ctx context.Context, table, key string) ([]byte, error)
}

// NoOpStore is a Store stub for disabled tiers.
type NoOpStore struct{}

var (
	_ Store  = NoOpStore{}
	_ Getter = NoOpStore{}
)

// Put discards value.
func (NoOpStore) Put(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NoOpStore) Delete(context.Context, string, string) error {
	return nil
}

// Truncate does nothing.
func (NoOpStore) Truncate(context.Context, string) error {
	return nil
}

// Get does not find anything.
func (NoOpStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, ErrNotFound
}
