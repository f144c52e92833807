package storage

import (
	"errors"
	"os"
)

// ErrLocked indicates another process holds the vault lock.
var ErrLocked = errors.New("storage: lock held by another process")

// Lock is an advisory exclusive lock guarding mutating vault sessions. It is
// taken on a sidecar file next to the vault (the vault file itself is
// replaced by rename during commits, which would orphan a lock on it).
type Lock struct {
	f    *os.File
	path string
}

// LockPath returns the lock file used for a vault path.
func LockPath(vaultPath string) string {
	return vaultPath + ".lock"
}

// Acquire takes the exclusive lock for vaultPath without blocking. If the
// lock is held elsewhere it fails fast with ErrLocked.
func Acquire(vaultPath string) (*Lock, error) {
	path := LockPath(vaultPath)
	f, err := acquireLockFile(path)
	if err != nil {
		return nil, err
	}
	return &Lock{f: f, path: path}, nil
}

// Release drops the lock. Idempotent.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := releaseLockFile(l.f, l.path)
	l.f = nil
	return err
}
