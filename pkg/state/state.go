// Package state keeps small values a plugin needs between runs, such as
// counters for derive graphs or read offsets, in a badger database under the
// plugin state directory.
//
// Munin may run fetches of the same plugin concurrently, so the database is
// guarded by a lock file next to it. A second opener waits according to the
// lock policy instead of failing on badger's own directory lock.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/backoff"
	"munin.szuro.net/pkg/lockfile"
)

// ErrNotFound is returned for keys that were never set.
var ErrNotFound = errors.New("state key not found")

type Store struct {
	dir  string
	db   *badger.DB
	lock *lockfile.Handle
}

// Open takes the store lock and opens the database in dir.
func Open(dir string, policy *backoff.Policy) (*Store, error) {
	if policy == nil {
		policy = backoff.Default()
	}

	h, err := lockfile.Acquire(dir+".lock", policy)
	if err != nil {
		return nil, err
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(logger.Default()))
	if err != nil {
		logger.Error("Failed to open state database", slog.String("path", dir), slog.Any("error", err))
		if relErr := h.Release(); relErr != nil {
			logger.Error("Failed to release lock", slog.String("path", dir+".lock"), slog.Any("error", relErr))
		}
		return nil, fmt.Errorf("opening state %s: %w", dir, err)
	}
	logger.Debug("Opened state database", slog.String("path", dir))

	return &Store{dir: dir, db: db, lock: h}, nil
}

// Close closes the database, then releases the lock.
func (s *Store) Close() error {
	err := s.db.Close()
	return errors.Join(err, s.lock.Release())
}

func (s *Store) Get(key string) (val []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return
}

func (s *Store) Set(key string, val []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// GetInt64 returns the integer stored under key, or def when it is missing.
func (s *Store) GetInt64(key string, def int64) (int64, error) {
	val, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	if len(val) != 8 {
		return def, fmt.Errorf("state key %s holds %d bytes, not an int64", key, len(val))
	}
	return bytesToInt64(val), nil
}

func (s *Store) SetInt64(key string, i int64) error {
	return s.Set(key, int64ToBytes(i))
}

func int64ToBytes(i int64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(i))
	return bytes
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
