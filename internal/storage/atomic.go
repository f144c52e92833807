// Package storage provides crash-safe file persistence for the vault: atomic
// whole-image replacement, consistent snapshot reads, and cross-process
// advisory locking.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces path with data in a single atomic step. The image
// is written to a temporary file in the same directory (same filesystem, so
// the final rename is atomic), given perm before it becomes visible, and
// fsynced before the rename. On any failure the original file is untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".keepctl-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	// Persist the rename itself. Failure here is reported but the commit has
	// already happened; the new image is what readers will observe.
	if d, err := os.Open(dir); err == nil {
		syncErr := d.Sync()
		d.Close()
		if syncErr != nil {
			return fmt.Errorf("sync directory: %w", syncErr)
		}
	}

	return nil
}

// ReadSnapshot reads path as one consistent image. If the file is replaced
// by a concurrent atomic commit while we read, the read is retried once;
// rename-based replacement guarantees each individual read observes either
// the old or the new committed image.
func ReadSnapshot(path string) ([]byte, error) {
	var data []byte
	for attempt := 0; ; attempt++ {
		before, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		after, err := os.Stat(path)
		if err == nil && os.SameFile(before, after) {
			return data, nil
		}
		if attempt == 1 {
			return data, nil
		}
	}
}
