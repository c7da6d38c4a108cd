// Package storage manages ignitekv's single active log file. Unlike the
// segment-rotation storage layer this package descends from, the native
// engine keeps exactly one append-only file per database directory —
// store.kvs — because the spec's crash-recovery and compaction procedures
// are both defined in terms of a single log with a single sibling file
// during rewrite, not a chain of immutable segments.
package storage

import (
	stdErrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/ignitekv/ignitekv/internal/record"
	"github.com/ignitekv/ignitekv/pkg/capability"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/options"
	"go.uber.org/zap"
)

// ActiveLogName is the literal filename of the active log within a
// database directory.
const ActiveLogName = "store.kvs"

// ErrLogClosed is returned when attempting to perform operations on a
// closed Log.
var ErrLogClosed = stdErrors.New("operation failed: cannot access closed log")

// Log represents the append-only file backing the native engine. It never
// trusts the OS file cursor across operations: every append seeks to the
// current end-of-file first, and every point read is a positional read at
// an explicit offset, so interleaved appends and reads can never interfere
// with each other.
type Log struct {
	dir     string
	file    *os.File
	options *options.Options
	log     *zap.SugaredLogger
	closed  bool
}

// Config encapsulates the configuration parameters required to open a Log.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Open opens (creating if absent) the active log file in config.Options.DataDir.
func Open(config *Config) (*Log, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, ignerrors.NewValidationError(
			nil, ignerrors.ErrorCodeInvalidInput, "storage configuration is required",
		).WithField("config").WithRule("required")
	}

	path := filepath.Join(config.Options.DataDir, ActiveLogName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, ignerrors.ClassifyFileOpenError(err, path, ActiveLogName)
	}

	config.Logger.Infow("opened active log", "path", path)

	return &Log{
		dir:     config.Options.DataDir,
		file:    file,
		options: config.Options,
		log:     config.Logger,
	}, nil
}

// Path returns the absolute path of the active log file.
func (l *Log) Path() string {
	return filepath.Join(l.dir, ActiveLogName)
}

// Size returns the current size of the active log file in bytes.
func (l *Log) Size() (int64, error) {
	info, err := l.file.Stat()
	if err != nil {
		return 0, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to stat log file").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}
	return info.Size(), nil
}

// Append writes data to the end of the log, regardless of the file's
// current cursor position, and returns the offset it was written at. When
// SyncOnWrite is enabled the write is fsynced before Append returns.
func (l *Log) Append(data []byte) (int64, error) {
	if l.closed {
		return 0, ErrLogClosed
	}

	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to seek to end of log").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}

	if _, err := l.file.Write(data); err != nil {
		return 0, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to append to log").
			WithPath(l.Path()).WithFileName(ActiveLogName).WithOffset(int(offset))
	}

	if l.options.SyncOnWrite {
		if err := l.file.Sync(); err != nil {
			return 0, ignerrors.ClassifySyncError(err, ActiveLogName, l.Path(), int(offset))
		}
	}

	return offset, nil
}

// ReadAt returns the bytes covered by ext, without disturbing the log
// file's append cursor — os.File.ReadAt never moves it in the first place.
func (l *Log) ReadAt(ext capability.Extent) ([]byte, error) {
	if l.closed {
		return nil, ErrLogClosed
	}

	buf := make([]byte, ext.Length)
	if _, err := l.file.ReadAt(buf, ext.Offset); err != nil {
		return nil, ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to read record").
			WithPath(l.Path()).WithFileName(ActiveLogName).WithOffset(int(ext.Offset))
	}

	return buf, nil
}

// Scan reads every record from the beginning of the log in order, calling
// fn with each decoded command and the extent it occupies. A torn final
// record — the expected result of a crash mid-append — ends the scan
// without reporting an error. record.Decode reports every read or decode
// failure as ErrTornRecord, so the scan also ends silently at the first
// record that cannot be read or decoded; only an error returned by fn
// propagates.
func (l *Log) Scan(fn func(cmd record.Command, ext capability.Extent) error) error {
	if l.closed {
		return ErrLogClosed
	}

	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to seek to start of log").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}
	defer l.file.Seek(0, io.SeekEnd)

	offset := int64(0)

	for {
		cmd, n, err := record.Decode(l.file)
		if err == io.EOF {
			return nil
		}
		if err == record.ErrTornRecord {
			l.log.Warnw("torn record at end of log, truncating recovery scan", "offset", offset)
			return nil
		}
		if err != nil {
			return err
		}

		if err := fn(cmd, capability.Extent{Offset: offset, Length: n}); err != nil {
			return err
		}

		offset += n
	}
}

// Truncate shrinks the active log to size bytes. Nothing in the engine or
// the compactor calls it (compaction failure paths delete store_bak.kvs
// with os.Remove), so the active log is never truncated by normal
// operation.
func (l *Log) Truncate(size int64) error {
	if err := l.file.Truncate(size); err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to truncate log").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}
	return nil
}

// Reopen closes the current file handle and opens the active log path
// fresh. The compactor calls this after it has renamed store_bak.kvs over
// store.kvs, since the old handle still points at the pre-compaction inode.
func (l *Log) Reopen() error {
	if err := l.file.Close(); err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to close log before reopen").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}

	file, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return ignerrors.ClassifyFileOpenError(err, l.Path(), ActiveLogName)
	}

	l.file = file
	return nil
}

// Close releases the log file handle.
func (l *Log) Close() error {
	if l.closed {
		return ErrLogClosed
	}
	l.closed = true
	if err := l.file.Close(); err != nil {
		return ignerrors.NewStorageError(err, ignerrors.ErrorCodeIO, "failed to close log").
			WithPath(l.Path()).WithFileName(ActiveLogName)
	}
	return nil
}
