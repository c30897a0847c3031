//go:build windows

package filelock

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// A blocking LockFileEx call parks the whole OS thread, so the lock is
// taken with LOCKFILE_FAIL_IMMEDIATELY and retried from Go, keeping the
// scheduler free to run other goroutines in the meantime.
const (
	exclusiveLock   = 0x00000002 // LOCKFILE_EXCLUSIVE_LOCK
	failImmediately = 0x00000001 // LOCKFILE_FAIL_IMMEDIATELY
	retryInterval   = time.Millisecond
)

func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	for {
		err := windows.LockFileEx(
			windows.Handle(f.Fd()),
			exclusiveLock|failImmediately,
			0, // reserved
			1, // lock a single byte
			0, // high word of the range
			ol,
		)
		if err == nil {
			return nil
		}
		// ERROR_LOCK_VIOLATION: another handle holds the lock, retry.
		if !errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return err
		}
		time.Sleep(retryInterval)
	}
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		0, // reserved
		1, // unlock the single locked byte
		0, // high word of the range
		ol,
	)
}
