package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.keep")

	if err := WriteFileAtomic(path, []byte("image-a"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte("image-a")) {
		t.Fatalf("content = %q, want %q", data, "image-a")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.keep")

	if err := WriteFileAtomic(path, []byte("old image"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new image"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte("new image")) {
		t.Fatalf("content = %q, want %q", data, "new image")
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.keep")

	if err := WriteFileAtomic(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "vault.keep" {
			t.Fatalf("leftover file %q", e.Name())
		}
	}
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "vault.keep")
	if err := WriteFileAtomic(path, []byte("x"), 0o600); err == nil {
		t.Fatal("write into missing directory succeeded")
	}
}

// A crash between the temp write and the rename must leave the committed
// image untouched and the stray temp file out of the way of later reads.
func TestInterruptedCommitPreservesCommittedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.keep")

	if err := WriteFileAtomic(path, []byte("committed"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	// Simulate a commit that died before its rename.
	tmp, err := os.CreateTemp(dir, ".keepctl-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := tmp.Write([]byte("half-writ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	tmp.Close()

	data, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !bytes.Equal(data, []byte("committed")) {
		t.Fatalf("snapshot = %q, want committed image", data)
	}
}

func TestReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.keep")

	if _, err := ReadSnapshot(path); !os.IsNotExist(err) {
		t.Fatalf("missing file err = %v, want not-exist", err)
	}

	if err := WriteFileAtomic(path, []byte("snapshot"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !bytes.Equal(data, []byte("snapshot")) {
		t.Fatalf("snapshot = %q", data)
	}
}

func TestLockExcludesSecondHolder(t *testing.T) {
	vaultPath := filepath.Join(t.TempDir(), "vault.keep")

	l1, err := Acquire(vaultPath)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := Acquire(vaultPath); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire err = %v, want ErrLocked", err)
	}

	if err := l1.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	l2, err := Acquire(vaultPath)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	l2.Release()
}

func TestLockReleaseIdempotent(t *testing.T) {
	vaultPath := filepath.Join(t.TempDir(), "vault.keep")

	l, err := Acquire(vaultPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}
