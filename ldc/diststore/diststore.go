// Package diststore implements distributed cache tier on top of Redis.
package diststore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vearutop/lazycache/ldc"
)

var (
	_ ldc.Store  = &Store{}
	_ ldc.Getter = &Store{}
)

// Config controls distributed store.
type Config struct {
	// Prefix is prepended to all keys, default "lc".
	Prefix string

	// Version is a schema version, bumping it makes old entries unreachable.
	Version int

	// ScanCount is a SCAN batch hint for Truncate, default 500.
	ScanCount int64
}

// Store keeps encoded values in Redis.
//
// Keys are "prefix:version:table:hash" where hash is xxhash of the cache key,
// which bounds key length for arbitrary cache keys.
type Store struct {
	client redis.UniversalClient
	config Config
}

// New creates a store on top of redis client.
func New(client redis.UniversalClient, cfg Config) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "lc"
	}

	if cfg.ScanCount == 0 {
		cfg.ScanCount = 500
	}

	return &Store{client: client, config: cfg}
}

func (s *Store) tablePrefix(table string) string {
	return s.config.Prefix + ":" + strconv.Itoa(s.config.Version) + ":" + table + ":"
}

// Key returns redis key of a cache key.
func (s *Store) Key(table, key string) string {
	return s.tablePrefix(table) + strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// Put stores value with ttl, zero ttl means no expiration.
func (s *Store) Put(ctx context.Context, table, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.Key(table, key), value, ttl).Err()
}

// Delete removes value.
func (s *Store) Delete(ctx context.Context, table, key string) error {
	return s.client.Del(ctx, s.Key(table, key)).Err()
}

// Truncate removes all values of table.
func (s *Store) Truncate(ctx context.Context, table string) error {
	var cursor uint64

	match := s.tablePrefix(table) + "*"

	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, s.config.ScanCount).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		if next == 0 {
			return nil
		}

		cursor = next
	}
}

// Get returns value or ldc.ErrNotFound.
func (s *Store) Get(ctx context.Context, table, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.Key(table, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ldc.ErrNotFound
	}

	return v, err
}
