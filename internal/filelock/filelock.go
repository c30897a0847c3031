// Package filelock provides an advisory exclusive lock backed by a file,
// used to serialize whole-document writes between taskvault processes
// sharing one vault.
package filelock

import "os"

const lockFileMode = 0o600

// Lock acquires an exclusive advisory lock on path, creating the file if
// needed. Callers block until the lock is free. The returned func releases
// the lock and closes the file; it must be called exactly once.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock lives in the vault root
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() error {
		unlockErr := unlockFile(f)
		if closeErr := f.Close(); unlockErr == nil {
			return closeErr
		}
		return unlockErr
	}, nil
}
