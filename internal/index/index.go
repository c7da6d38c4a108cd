// Package index provides the in-memory hash table mapping live keys to
// their on-disk location in ignitekv's native log-structured engine. It
// embodies the classic Bitcask tradeoff: keep every key in memory for O(1)
// lookups, and keep only a byte offset and length for the value, so the
// value itself never has to live in memory until it is actually read.
package index

import (
	stdErrors "errors"

	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/capability"
)

// ErrIndexClosed is returned when attempting to use an Index after Close.
var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates and initializes a new Index instance configured according to
// the provided parameters. The returned Index is immediately ready for
// concurrent use and includes optimizations like pre-allocated map capacity.
func New(config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		dataDir: config.DataDir,
		extents: make(map[string]capability.Extent, 2046),
	}, nil
}

// Get returns the extent for key and whether it was present.
func (idx *Index) Get(key string) (capability.Extent, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ext, ok := idx.extents[key]
	return ext, ok
}

// Set records the extent of key's most recent Set, overwriting any
// previous entry.
func (idx *Index) Set(key string, ext capability.Extent) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.extents[key] = ext
}

// Remove deletes key from the index. It returns ignerrors' key-not-found
// IndexError if key is not currently present, matching the engine's requirement
// that Remove on an absent key performs no I/O.
func (idx *Index) Remove(key string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.extents[key]; !ok {
		return ignerrors.NewKeyNotFoundError(key)
	}

	delete(idx.extents, key)
	return nil
}

// Len returns the number of live keys currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.extents)
}

// Range calls fn once for every live key and its extent, in an unspecified
// order. fn must not call back into the Index.
func (idx *Index) Range(fn func(key string, ext capability.Extent)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for key, ext := range idx.extents {
		fn(key, ext)
	}
}

// Reset discards every entry and installs replacements in a single
// locked step, used after compaction rewrites the log with new extents.
func (idx *Index) Reset(entries map[string]capability.Extent) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.extents = entries
}

// Close gracefully shuts down the Index, releasing its backing map.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index", "dataDir", idx.dataDir)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.extents)
	idx.extents = nil

	return nil
}
