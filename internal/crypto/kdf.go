package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the per-vault KDF salt size in bytes.
	SaltSize = 32

	// AlgoArgon2id identifies Argon2id in the vault header.
	AlgoArgon2id = 1

	// Argon2id defaults: 64 MiB, 3 passes, single lane.
	DefaultMemoryKiB   = 64 * 1024
	DefaultTime        = 3
	DefaultParallelism = 1

	// Upper bounds on parameters accepted from a vault header. The header is
	// read before anything is authenticated, so a corrupt or hostile cost
	// field must not be able to drive a multi-gigabyte allocation or an
	// unbounded derivation; out-of-range values fail validation instead.
	MaxMemoryKiB   = 4 << 20 // 4 GiB
	MaxTime        = 1 << 10
	MaxParallelism = 64
)

// Params holds the key-derivation parameters recorded in the vault header.
// MemoryKiB is the Argon2 memory cost in KiB.
type Params struct {
	AlgorithmID uint8
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
}

// DefaultParams returns the parameters used for newly created vaults.
func DefaultParams() Params {
	return Params{
		AlgorithmID: AlgoArgon2id,
		MemoryKiB:   DefaultMemoryKiB,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
	}
}

// Validate rejects parameter sets this build cannot or should not run.
func (p Params) Validate() error {
	if p.AlgorithmID != AlgoArgon2id {
		return fmt.Errorf("unsupported kdf algorithm id %d", p.AlgorithmID)
	}
	if p.MemoryKiB == 0 || p.MemoryKiB > MaxMemoryKiB {
		return fmt.Errorf("kdf memory cost %d KiB out of range [1, %d]", p.MemoryKiB, MaxMemoryKiB)
	}
	if p.Time == 0 || p.Time > MaxTime {
		return fmt.Errorf("kdf time cost %d out of range [1, %d]", p.Time, MaxTime)
	}
	if p.Parallelism == 0 || p.Parallelism > MaxParallelism {
		return fmt.Errorf("kdf parallelism %d out of range [1, %d]", p.Parallelism, MaxParallelism)
	}
	return nil
}

// WeakerThan reports whether p is weaker than baseline: any component
// strictly below the baseline counts as a downgrade.
func (p Params) WeakerThan(baseline Params) bool {
	return p.MemoryKiB < baseline.MemoryKiB ||
		p.Time < baseline.Time ||
		p.Parallelism < baseline.Parallelism
}

// DeriveKey stretches a master password into a KeySize-byte key with
// Argon2id. The caller owns both the password and the returned key and is
// responsible for wiping them.
func DeriveKey(password, salt []byte, p Params) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password is required")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes", SaltSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Parallelism, KeySize), nil
}

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateKey returns a fresh random symmetric key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}
