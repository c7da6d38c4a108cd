// Package ignitekv is the public entry point to the key/value store: open
// a directory, get back a handle with Set/Get/Remove/Close, backed by
// either the native log-structured engine or the bbolt-backed alternate.
package ignitekv

import (
	"errors"
	"path/filepath"

	"github.com/ignitekv/ignitekv/internal/boltengine"
	"github.com/ignitekv/ignitekv/internal/engine"
	"github.com/ignitekv/ignitekv/internal/lockfile"
	"github.com/ignitekv/ignitekv/pkg/capability"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/filesys"
	"github.com/ignitekv/ignitekv/pkg/logger"
	"github.com/ignitekv/ignitekv/pkg/options"
	"go.uber.org/zap"
)

// lockFileName marks a directory as owned by an open DB. The lock it
// carries is an OS-level advisory flock (see internal/lockfile), not the
// file's mere existence, so a crashed process — server or otherwise —
// never leaves a recoverable directory stuck looking "already open".
const lockFileName = ".ignitekv.lock"

// DB is a handle to an open ignitekv database. It wraps whichever storage
// backend Options.Engine selected behind the shared capability.Store
// interface, so callers never need to know which one they're talking to.
type DB struct {
	store   capability.Store
	options *options.Options
	lock    *lockfile.Lock
}

// Open creates the database directory if needed and opens it with the
// backend named by the applied options. It starts from
// options.NewDefaultOptions with DataDir set to dir, then applies opts in
// order, each overriding the fields it sets.
func Open(dir string, opts ...options.OptionFunc) (*DB, error) {
	resolved := options.NewDefaultOptions()
	resolved.DataDir = dir
	for _, opt := range opts {
		opt(&resolved)
	}

	log := logger.New("ignitekv")

	if err := filesys.CreateDir(resolved.DataDir, 0755, true); err != nil {
		return nil, ignerrors.ClassifyDirectoryCreationError(err, resolved.DataDir)
	}

	lockPath := filepath.Join(resolved.DataDir, lockFileName)
	lock, err := lockfile.Acquire(lockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrLocked) {
			return nil, ignerrors.NewValidationError(
				err, ignerrors.ErrorCodeInvalidInput, "database directory already has an open owner",
			).WithField("dataDir").WithRule("single_owner").WithProvided(resolved.DataDir)
		}
		return nil, ignerrors.ClassifyFileOpenError(err, lockPath, lockFileName)
	}

	store, err := openBackend(&resolved, log)
	if err != nil {
		lock.Release()
		return nil, err
	}

	return &DB{store: store, options: &resolved, lock: lock}, nil
}

func openBackend(opts *options.Options, log *zap.SugaredLogger) (capability.Store, error) {
	switch opts.Engine {
	case options.EngineSled:
		return boltengine.Open(opts.DataDir)
	default:
		return engine.New(&engine.Config{Options: opts, Logger: log})
	}
}

// Set stores value under key, overwriting any previous value.
func (db *DB) Set(key, value string) error {
	return db.store.Set(key, value)
}

// Get returns the value stored under key.
func (db *DB) Get(key string) (string, error) {
	return db.store.Get(key)
}

// Remove deletes key. It fails if key is not present.
func (db *DB) Remove(key string) error {
	return db.store.Remove(key)
}

// Close releases all resources held by the database and releases its
// advisory lock, making the directory available to the next Open.
func (db *DB) Close() error {
	if err := db.store.Close(); err != nil {
		return err
	}
	return db.lock.Release()
}
