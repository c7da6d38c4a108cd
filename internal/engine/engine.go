// Package engine provides the native log-structured storage engine: the
// component that owns the active log, the in-memory index, and the
// compactor, and exposes the three operations everything else in ignitekv
// is built around.
package engine

import (
	stdErrors "errors"
	"sync"
	"sync/atomic"

	"github.com/ignitekv/ignitekv/internal/compaction"
	"github.com/ignitekv/ignitekv/internal/index"
	"github.com/ignitekv/ignitekv/internal/record"
	"github.com/ignitekv/ignitekv/internal/storage"
	"github.com/ignitekv/ignitekv/pkg/capability"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/options"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a
// closed engine.
var ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")

// Engine is ignitekv's native storage backend: one active log file, one
// in-memory index rebuilt from it at open, and a compactor that reclaims
// space once enough stale commands have piled up. It implements
// capability.Store.
type Engine struct {
	opts          *options.Options
	log           *zap.SugaredLogger
	closed        atomic.Bool
	index         *index.Index
	storage       *storage.Log
	compaction    *compaction.Compaction
	commandsTotal atomic.Int64

	// mu serializes Set/Get/Remove/compaction. The spec's concurrency
	// model is a single writer per directory (enforced above this layer
	// by the sequential server accept loop); this mutex is the engine's
	// own backstop so a misused Engine fails safe rather than corrupting
	// the log via interleaved appends.
	mu sync.Mutex
}

// Config holds all the parameters needed to initialize a new Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens (or creates) the database at config.Options.DataDir and
// recovers the index by scanning the log from the beginning.
func New(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required")
	}

	idx, err := index.New(&index.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(&storage.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	compactor, err := compaction.New(&compaction.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		store.Close()
		return nil, err
	}

	e := &Engine{
		opts:       config.Options,
		log:        config.Logger,
		index:      idx,
		storage:    store,
		compaction: compactor,
	}

	total, err := recoverIndex(store, idx)
	if err != nil {
		store.Close()
		return nil, err
	}
	e.commandsTotal.Store(total)

	config.Logger.Infow("engine recovered", "liveKeys", idx.Len(), "commandsTotal", total)
	return e, nil
}

// Set stores value under key, appending a Set command to the log and
// updating the index to point at it.
func (e *Engine) Set(key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	buf, err := record.Encode(record.NewSet(key, value))
	if err != nil {
		return err
	}

	offset, err := e.storage.Append(buf)
	if err != nil {
		return err
	}

	e.index.Set(key, capability.Extent{Offset: offset, Length: int64(len(buf))})
	e.commandsTotal.Add(1)

	return e.maybeCompact()
}

// Get returns the value stored under key by reading and decoding the
// record at its extent. Get never leaves the log file's cursor in a state
// that would corrupt a subsequent Append, because ReadAt never moves that
// cursor in the first place; Append always seeks to end-of-file on its own
// before writing.
func (e *Engine) Get(key string) (string, error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ext, ok := e.index.Get(key)
	if !ok {
		return "", ignerrors.NewKeyNotFoundError(key)
	}

	raw, err := e.storage.ReadAt(ext)
	if err != nil {
		return "", err
	}

	cmd, err := record.DecodeExact(raw)
	if err != nil {
		return "", ignerrors.NewCodecError(
			err, ignerrors.ErrorCodeDecodeFailure, "failed to decode record",
		).WithOffset(ext.Offset).WithByteCount(len(raw))
	}

	return cmd.Value, nil
}

// Remove deletes key. If key is absent, it fails with a key-not-found
// error and performs no I/O — the index lookup happens before any append.
func (e *Engine) Remove(key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Remove(key); err != nil {
		return err
	}

	buf, err := record.Encode(record.NewRemove(key))
	if err != nil {
		return err
	}

	if _, err := e.storage.Append(buf); err != nil {
		return err
	}

	e.commandsTotal.Add(1)

	return e.maybeCompact()
}

// maybeCompact runs compaction when the number of commands written since
// the log was last rewritten exceeds the configured ratio of live keys.
// Called with e.mu already held.
func (e *Engine) maybeCompact() error {
	liveKeys := int64(e.index.Len())
	ratio := int64(e.opts.CompactionRatio)
	if ratio < 1 {
		ratio = 1
	}

	if e.commandsTotal.Load() <= ratio*liveKeys {
		return nil
	}

	current := make(map[string]capability.Extent, liveKeys)
	e.index.Range(func(key string, ext capability.Extent) {
		current[key] = ext
	})

	newExtents, err := e.compaction.Run(e.storage, current)
	if err != nil {
		return err
	}

	e.index.Reset(newExtents)
	e.commandsTotal.Store(int64(len(newExtents)))

	return nil
}

// Close gracefully shuts down the engine and releases its resources.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Close(); err != nil {
		return err
	}
	return e.storage.Close()
}
