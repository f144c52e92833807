package vault

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/keepctl/keepctl/internal/crypto"
	"github.com/keepctl/keepctl/internal/storage"
)

// The strongest KDF parameters ever accepted for a vault are tracked in a
// sidecar next to the vault file. The header's own parameters are covered by
// the key-wrap tag, so they cannot be edited in place, but a whole header can
// be replayed from an older vault image; the sidecar is what turns such a
// replay into ErrDowngradeRejected instead of a silent weakening.

type strengthRecord struct {
	Algo        uint8  `json:"algo"`
	MemoryKiB   uint32 `json:"memory_kib"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
}

// StrengthPath returns the sidecar file for a vault path.
func StrengthPath(vaultPath string) string {
	return vaultPath + ".kdf"
}

func loadStrength(vaultPath string) (crypto.Params, bool, error) {
	data, err := os.ReadFile(StrengthPath(vaultPath))
	if err != nil {
		if os.IsNotExist(err) {
			return crypto.Params{}, false, nil
		}
		return crypto.Params{}, false, fmt.Errorf("read kdf strength record: %w", err)
	}

	var rec strengthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return crypto.Params{}, false, fmt.Errorf("parse kdf strength record: %w", err)
	}

	return crypto.Params{
		AlgorithmID: rec.Algo,
		MemoryKiB:   rec.MemoryKiB,
		Time:        rec.Time,
		Parallelism: rec.Parallelism,
	}, true, nil
}

// checkStrength enforces the monotonic strength policy before the KDF runs.
func checkStrength(vaultPath string, p crypto.Params) error {
	baseline, ok, err := loadStrength(vaultPath)
	if err != nil {
		return err
	}
	if ok && p.WeakerThan(baseline) {
		return ErrDowngradeRejected
	}
	return nil
}

// recordStrength persists p as the new baseline if it strengthens (or first
// establishes) the record. Called only after a successful authenticated open.
// A recorded component is never lowered: read-only opens skip the exclusive
// lock, so a reader holding a pre-rotation image may race a rotation, and its
// weaker parameters must not roll the baseline back.
func recordStrength(vaultPath string, p crypto.Params) error {
	baseline, ok, err := loadStrength(vaultPath)
	if err != nil {
		return err
	}
	if ok {
		if !baseline.WeakerThan(p) {
			return nil
		}
		if p.MemoryKiB < baseline.MemoryKiB {
			p.MemoryKiB = baseline.MemoryKiB
		}
		if p.Time < baseline.Time {
			p.Time = baseline.Time
		}
		if p.Parallelism < baseline.Parallelism {
			p.Parallelism = baseline.Parallelism
		}
	}

	rec := strengthRecord{
		Algo:        p.AlgorithmID,
		MemoryKiB:   p.MemoryKiB,
		Time:        p.Time,
		Parallelism: p.Parallelism,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode kdf strength record: %w", err)
	}

	if err := storage.WriteFileAtomic(StrengthPath(vaultPath), data, 0o600); err != nil {
		return fmt.Errorf("write kdf strength record: %w", err)
	}
	return nil
}
