//go:build !linux && !darwin

package storage

import (
	"fmt"
	"os"
)

// Fallback for platforms without flock: the lock file's existence is the
// lock. O_EXCL creation fails while another process holds it.
func acquireLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	return f, nil
}

func releaseLockFile(f *os.File, path string) error {
	f.Close()
	return os.Remove(path)
}
