// Package boltengine implements ignitekv's alternate storage backend,
// selected by the "sled" engine flag for historical continuity with the
// Rust implementation this project was ported from, which used the sled
// embedded database for the same role. There is no Go-native sled; bbolt
// fills the same niche (a single-file embedded B+tree store) and is used
// here as a thin delegate with no log, no index, and no compactor of its
// own — exactly the shape the original sled wrapper had.
package boltengine

import (
	"path/filepath"

	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"go.etcd.io/bbolt"
)

// FileName is the literal filename of the bbolt database file within a
// database directory.
const FileName = "store.bolt"

// bucketName is the single bucket every key lives in; there is no notion
// of namespacing in ignitekv's data model.
var bucketName = []byte("ignitekv")

// Engine delegates Set/Get/Remove to a bbolt database. It implements
// capability.Store.
type Engine struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the bbolt database at dir/store.bolt and
// ensures the single bucket ignitekv uses exists.
func Open(dir string) (*Engine, error) {
	path := filepath.Join(dir, FileName)

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to open bolt database").
			WithPath(path).WithFileName(FileName)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to initialize bolt bucket").
			WithPath(path).WithFileName(FileName)
	}

	return &Engine{db: db}, nil
}

// Set stores value under key.
func (e *Engine) Set(key, value string) error {
	err := e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to write key")
	}
	return nil
}

// Get returns the value stored under key, or a key-not-found IndexError.
// Existence is tracked separately from the copied value bytes: bbolt's
// Get returns nil for an absent key and a non-nil zero-length slice for a
// key holding an empty value, but copying that zero-length slice with
// append yields nil, so the copy alone cannot tell the two cases apart.
func (e *Engine) Get(key string) (string, error) {
	var value []byte
	var found bool

	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to read key")
	}
	if !found {
		return "", ignerrors.NewKeyNotFoundError(key)
	}

	return string(value), nil
}

// Remove deletes key. It fails with a key-not-found IndexError if key is
// not present, matching the native engine's Remove semantics.
func (e *Engine) Remove(key string) error {
	var existed bool

	err := e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		existed = true
		return b.Delete([]byte(key))
	})
	if err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to remove key")
	}
	if !existed {
		return ignerrors.NewKeyNotFoundError(key)
	}

	return nil
}

// Close releases the underlying bbolt database file.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to close bolt database")
	}
	return nil
}
