// Package lockfile provides the OS-level advisory lock ignitekv uses to
// enforce its single-owner-per-directory rule.
//
// A plain "does this file exist" check, which is what a lock file's mere
// presence gives you, survives a crash: the file is still there the next
// time the directory is opened, even though the process that created it is
// long gone. flock(2) (LockFileEx on Windows) does not have that problem —
// the lock is held against the open file description, not the path, so the
// kernel releases it the instant the owning process exits, cleanly or not.
// That is the property spec.md's own recommendation leans on, and the one
// a plain existence check cannot provide.
package lockfile

import (
	"errors"
	"os"
)

// ErrLocked is returned by Acquire when another live process already
// holds the lock. It is not a crash artifact — Acquire only ever returns
// it while the holder is still running.
var ErrLocked = errors.New("lockfile: already locked by another process")

// Lock is an open file handle carrying an OS-level exclusive advisory
// lock.
type Lock struct {
	file *os.File
}

// Acquire opens (creating if absent) the file at path and takes a
// non-blocking exclusive lock on it. The lock file itself is never
// deleted — only the flock held against it matters, and the OS clears
// that automatically when the owning process ends.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	blocked, err := lockExclusive(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if blocked {
		f.Close()
		return nil, ErrLocked
	}

	return &Lock{file: f}, nil
}

// Release unlocks and closes the underlying file handle, making the
// directory available to the next Acquire.
func (l *Lock) Release() error {
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
