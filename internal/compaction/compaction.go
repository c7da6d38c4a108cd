// Package compaction implements the rewrite-and-rename procedure that
// reclaims space from ignitekv's log: live records are copied into a fresh
// sibling file, and that file is renamed over the active log as the single
// atomic commit point. This package did not exist anywhere upstream; the
// engine it is wired into referenced one without defining it, so the
// procedure here is grounded directly on the spec's four-step description
// and on the original Rust implementation's compact() — create
// store_bak.kvs, copy every live record, fsync and rename it over
// store.kvs, then reopen.
package compaction

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ignitekv/ignitekv/internal/record"
	"github.com/ignitekv/ignitekv/internal/storage"
	"github.com/ignitekv/ignitekv/pkg/capability"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"go.uber.org/zap"
)

// BackupLogName is the literal filename of the transient file compaction
// rewrites live records into before renaming it over the active log.
const BackupLogName = "store_bak.kvs"

// Compaction rewrites a Log's live records into a fresh file and commits
// the rewrite with an atomic rename.
type Compaction struct {
	dir string
	log *zap.SugaredLogger
}

// Config holds the parameters needed to construct a Compaction.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}

// New builds a Compaction bound to a database directory.
func New(config *Config) (*Compaction, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "compaction configuration is required",
		).WithField("config").WithRule("required")
	}
	return &Compaction{dir: config.DataDir, log: config.Logger}, nil
}

// entry pairs a key with the extent of its live record, so Run can rewrite
// records in a stable, ascending-offset order —
// the same order they were originally written in, which keeps the
// rewritten file's layout predictable and keeps ties between equal offsets
// (which cannot happen, offsets are unique) moot.
type entry struct {
	key string
	ext capability.Extent
}

// Run performs the four-step compaction procedure against l, using
// current to decide which keys are still live and at what extent:
//
//  1. create store_bak.kvs
//  2. copy every live record from the active log into it, oldest offset
//     first
//  3. fsync and rename store_bak.kvs over store.kvs — the commit point
//  4. reopen the active log and return the new extents the caller's
//     index should adopt
//
// If Run fails before the rename, the active log is untouched and the
// caller can simply retry compaction later; Run removes the half-written
// backup file itself in that case.
func (c *Compaction) Run(l *storage.Log, current map[string]capability.Extent) (map[string]capability.Extent, error) {
	entries := make([]entry, 0, len(current))
	for key, ext := range current {
		entries = append(entries, entry{key: key, ext: ext})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ext.Offset < entries[j].ext.Offset })

	backupPath := filepath.Join(c.dir, BackupLogName)
	backup, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, ignerrors.ClassifyFileOpenError(err, backupPath, BackupLogName)
	}

	newExtents := make(map[string]capability.Extent, len(entries))
	var offset int64

	for _, e := range entries {
		raw, err := l.ReadAt(e.ext)
		if err != nil {
			backup.Close()
			os.Remove(backupPath)
			return nil, err
		}

		cmd, err := record.DecodeExact(raw)
		if err != nil {
			backup.Close()
			os.Remove(backupPath)
			return nil, ignerrors.NewCodecError(
				err, ignerrors.ErrorCodeDecodeFailure, "failed to decode live record during compaction",
			).WithOffset(e.ext.Offset)
		}

		// Re-encode rather than copy raw bytes so a key carried forward
		// from an older on-disk format always lands in the current one.
		buf, err := record.Encode(cmd)
		if err != nil {
			backup.Close()
			os.Remove(backupPath)
			return nil, err
		}

		if _, err := backup.Write(buf); err != nil {
			backup.Close()
			os.Remove(backupPath)
			return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to write compaction backup").
				WithPath(backupPath).WithFileName(BackupLogName)
		}

		newExtents[e.key] = capability.Extent{Offset: offset, Length: int64(len(buf))}
		offset += int64(len(buf))
	}

	if err := backup.Sync(); err != nil {
		backup.Close()
		os.Remove(backupPath)
		return nil, ignerrors.ClassifySyncError(err, BackupLogName, backupPath, int(offset))
	}
	if err := backup.Close(); err != nil {
		os.Remove(backupPath)
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to close compaction backup").
			WithPath(backupPath).WithFileName(BackupLogName)
	}

	// The rename is the single commit point: once it succeeds, the
	// rewritten file is the log, regardless of what happens next.
	if err := os.Rename(backupPath, l.Path()); err != nil {
		os.Remove(backupPath)
		return nil, ignerrors.NewStorageError(
			err, ignerrors.ErrorCodeCompactionFailed, "failed to commit compaction rename",
		).WithPath(l.Path())
	}

	if err := l.Reopen(); err != nil {
		return nil, err
	}

	c.log.Infow("compaction complete", "liveKeys", len(newExtents), "bytes", offset)
	return newExtents, nil
}
