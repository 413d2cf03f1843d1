// Package memstore provides an in-process ldc.Store with expiration.
//
// It stands in for the distributed cache tier in single-process deployments and tests.
package memstore

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/vearutop/lazycache/ldc"
)

var (
	_ ldc.Store  = &Store{}
	_ ldc.Getter = &Store{}
)

// Store keeps encoded values in memory.
type Store struct {
	data *gocache.Cache
}

// New creates a store, entries without ttl expire after defaultTTL (never if 0).
func New(defaultTTL, cleanupInterval time.Duration) *Store {
	if defaultTTL == 0 {
		defaultTTL = gocache.NoExpiration
	}

	return &Store{data: gocache.New(defaultTTL, cleanupInterval)}
}

func storeKey(table, key string) string {
	return table + "\x00" + key
}

// Put stores value.
func (s *Store) Put(_ context.Context, table, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}

	s.data.Set(storeKey(table, key), value, ttl)

	return nil
}

// Delete removes value.
func (s *Store) Delete(_ context.Context, table, key string) error {
	s.data.Delete(storeKey(table, key))

	return nil
}

// Truncate removes all values of table.
func (s *Store) Truncate(_ context.Context, table string) error {
	prefix := table + "\x00"

	for k := range s.data.Items() {
		if strings.HasPrefix(k, prefix) {
			s.data.Delete(k)
		}
	}

	return nil
}

// Get returns value or ldc.ErrNotFound.
func (s *Store) Get(_ context.Context, table, key string) ([]byte, error) {
	v, found := s.data.Get(storeKey(table, key))
	if !found {
		return nil, ldc.ErrNotFound
	}

	return v.([]byte), nil
}

// Len returns number of stored values, including expired but not yet cleaned.
func (s *Store) Len() int {
	return s.data.ItemCount()
}
