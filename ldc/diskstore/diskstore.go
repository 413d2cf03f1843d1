// Package diskstore implements local disk cache on top of LevelDB.
package diskstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vearutop/lazycache/ldc"
)

var (
	_ ldc.Store  = &Store{}
	_ ldc.Getter = &Store{}
)

// ErrTypesMismatch indicates database written with different registered value types.
const ErrTypesMismatch = ldc.SentinelError("stored value types fingerprint mismatch")

// for types fingerprint of stored values.
var typesKey = []byte{0x00, 'T', 'Y', 'P', 'E', 'S'}

// Store keeps encoded values of all tables in a single database, keys are prefixed with table name.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates database in a directory.
//
// Database created with different ldc.GobTypesHash fails with ErrTypesMismatch,
// unless reset is true, in which case its content is dropped.
func Open(path string, reset bool) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open ldc database: %w", err)
	}

	s := &Store{db: db}

	if err := s.checkTypes(reset); err != nil {
		_ = db.Close() //nolint:errcheck // Reporting check error.

		return nil, err
	}

	return s, nil
}

func (s *Store) checkTypes(reset bool) error {
	want := make([]byte, 8)
	binary.BigEndian.PutUint64(want, ldc.GobTypesHash())

	got, err := s.db.Get(typesKey, nil)

	switch {
	case errors.Is(err, leveldb.ErrNotFound):
	case err != nil:
		return err
	case string(got) == string(want):
		return nil
	case !reset:
		return ErrTypesMismatch
	default:
		if err := s.deletePrefix(nil); err != nil {
			return err
		}
	}

	return s.db.Put(typesKey, want, nil)
}

// Close closes database.
func (s *Store) Close() error {
	return s.db.Close()
}

func tablePrefix(table string) []byte {
	return append([]byte(table), 0x00)
}

func storeKey(table, key string) []byte {
	return append(tablePrefix(table), key...)
}

// Put stores value, ttl is ignored.
func (s *Store) Put(_ context.Context, table, key string, value []byte, _ time.Duration) error {
	return s.db.Put(storeKey(table, key), value, nil)
}

// Delete removes value.
func (s *Store) Delete(_ context.Context, table, key string) error {
	return s.db.Delete(storeKey(table, key), nil)
}

// Truncate removes all values of table.
func (s *Store) Truncate(_ context.Context, table string) error {
	return s.deletePrefix(tablePrefix(table))
}

func (s *Store) deletePrefix(prefix []byte) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	batch := new(leveldb.Batch)

	for iter.Next() {
		if prefix == nil && string(iter.Key()) == string(typesKey) {
			continue
		}

		batch.Delete(append([]byte(nil), iter.Key()...))
	}

	iter.Release()

	if err := iter.Error(); err != nil {
		return err
	}

	return s.db.Write(batch, nil)
}

// Get returns value or ldc.ErrNotFound.
func (s *Store) Get(_ context.Context, table, key string) ([]byte, error) {
	v, err := s.db.Get(storeKey(table, key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ldc.ErrNotFound
	}

	return v, err
}

// Keys returns stored keys of table.
func (s *Store) Keys(table string) ([]string, error) {
	prefix := tablePrefix(table)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var keys []string

	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(prefix):]))
	}

	return keys, iter.Error()
}
