//go:build windows

// LockFileEx implementation for Windows.
package lockfile

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock   = 0x00000002
	lockfileFailImmediately = 0x00000001

	errLockViolation = 33 // ERROR_LOCK_VIOLATION
)

// lockExclusive takes a non-blocking exclusive lock on f's entire range.
// The bool return reports whether another process already holds it.
func lockExclusive(f *os.File) (blocked bool, err error) {
	var overlapped syscall.Overlapped

	r1, _, callErr := procLockFileEx.Call(
		uintptr(f.Fd()),
		uintptr(lockfileExclusiveLock|lockfileFailImmediately),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 != 0 {
		return false, nil
	}
	if errno, ok := callErr.(syscall.Errno); ok && errno == errLockViolation {
		return true, nil
	}
	return false, callErr
}

func unlockFile(f *os.File) error {
	var overlapped syscall.Overlapped

	r1, _, err := procUnlockFileEx.Call(
		uintptr(f.Fd()),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
