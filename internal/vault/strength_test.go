package vault

import (
	"path/filepath"
	"testing"

	"github.com/keepctl/keepctl/internal/crypto"
)

// The sidecar baseline must only ever strengthen. A read-only open holding a
// pre-rotation image races a concurrent rotation without the lock; its weaker
// parameters must not roll the record back.
func TestRecordStrengthNeverWeakens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.keep")

	strong := crypto.Params{AlgorithmID: crypto.AlgoArgon2id, MemoryKiB: 128, Time: 2, Parallelism: 2}
	weak := crypto.Params{AlgorithmID: crypto.AlgoArgon2id, MemoryKiB: 64, Time: 1, Parallelism: 1}

	if err := recordStrength(path, strong); err != nil {
		t.Fatalf("recordStrength: %v", err)
	}
	if err := recordStrength(path, weak); err != nil {
		t.Fatalf("recordStrength: %v", err)
	}

	got, ok, err := loadStrength(path)
	if err != nil {
		t.Fatalf("loadStrength: %v", err)
	}
	if !ok || got != strong {
		t.Fatalf("baseline = %+v, want %+v", got, strong)
	}
}

func TestRecordStrengthMergesComponents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.keep")

	if err := recordStrength(path, crypto.Params{AlgorithmID: crypto.AlgoArgon2id, MemoryKiB: 128, Time: 2, Parallelism: 2}); err != nil {
		t.Fatalf("recordStrength: %v", err)
	}
	// More memory, fewer passes: only the stronger component may move.
	if err := recordStrength(path, crypto.Params{AlgorithmID: crypto.AlgoArgon2id, MemoryKiB: 256, Time: 1, Parallelism: 1}); err != nil {
		t.Fatalf("recordStrength: %v", err)
	}

	got, ok, err := loadStrength(path)
	if err != nil {
		t.Fatalf("loadStrength: %v", err)
	}
	want := crypto.Params{AlgorithmID: crypto.AlgoArgon2id, MemoryKiB: 256, Time: 2, Parallelism: 2}
	if !ok || got != want {
		t.Fatalf("baseline = %+v, want %+v", got, want)
	}
}
