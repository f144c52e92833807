package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := testKey(t)
	aad := []byte("header-v1")
	plaintext := []byte("hunter2")

	nonce, ct, err := Seal(key, aad, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(nonce) != NonceSize {
		t.Fatalf("nonce length = %d, want %d", len(nonce), NonceSize)
	}
	if len(ct) != len(plaintext)+TagSize {
		t.Fatalf("ciphertext length = %d, want %d", len(ct), len(plaintext)+TagSize)
	}

	got, err := Open(key, nonce, aad, ct)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestSealGeneratesFreshNonces(t *testing.T) {
	key := testKey(t)
	n1, _, err := Seal(key, nil, []byte("x"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	n2, _, err := Seal(key, nil, []byte("x"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("two seals produced the same nonce")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	key := testKey(t)
	aad := []byte("context")
	nonce, ct, err := Seal(key, aad, []byte("secret payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0x01
		return out
	}

	cases := []struct {
		name  string
		nonce []byte
		aad   []byte
		ct    []byte
	}{
		{"ciphertext bit", nonce, aad, flip(ct, 0)},
		{"tag bit", nonce, aad, flip(ct, len(ct)-1)},
		{"nonce bit", flip(nonce, 3), aad, ct},
		{"aad bit", nonce, flip(aad, 0), ct},
		{"truncated", nonce, aad, ct[:TagSize-1]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pt, err := Open(key, tc.nonce, tc.aad, tc.ct)
			if !errors.Is(err, ErrAuth) {
				t.Fatalf("err = %v, want ErrAuth", err)
			}
			if pt != nil {
				t.Fatal("plaintext returned on authentication failure")
			}
		})
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	key := testKey(t)
	nonce, ct, err := Seal(key, nil, []byte("data"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(testKey(t), nonce, nil, ct); !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	p := Params{AlgorithmID: AlgoArgon2id, MemoryKiB: 64, Time: 1, Parallelism: 1}
	salt := make([]byte, SaltSize)
	salt[0] = 0x42

	k1, err := DeriveKey([]byte("password"), salt, p)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey([]byte("password"), salt, p)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("same inputs derived different keys")
	}

	salt[0] = 0x43
	k3, err := DeriveKey([]byte("password"), salt, p)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Fatal("different salts derived the same key")
	}
}

func TestDeriveKeyValidation(t *testing.T) {
	p := Params{AlgorithmID: AlgoArgon2id, MemoryKiB: 64, Time: 1, Parallelism: 1}
	salt := make([]byte, SaltSize)

	if _, err := DeriveKey(nil, salt, p); err == nil {
		t.Fatal("empty password accepted")
	}
	if _, err := DeriveKey([]byte("pw"), salt[:8], p); err == nil {
		t.Fatal("short salt accepted")
	}
	bad := p
	bad.AlgorithmID = 9
	if _, err := DeriveKey([]byte("pw"), salt, bad); err == nil {
		t.Fatal("unknown algorithm accepted")
	}
}

// Header parameters are read before authentication; costs past the caps must
// fail validation instead of reaching the allocator.
func TestValidateRejectsExcessiveCosts(t *testing.T) {
	base := Params{AlgorithmID: AlgoArgon2id, MemoryKiB: 64, Time: 1, Parallelism: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []struct {
		name string
		p    Params
	}{
		{"memory over cap", Params{AlgoArgon2id, MaxMemoryKiB + 1, 1, 1}},
		{"time over cap", Params{AlgoArgon2id, 64, MaxTime + 1, 1}},
		{"parallelism over cap", Params{AlgoArgon2id, 64, 1, MaxParallelism + 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.p.Validate(); err == nil {
				t.Fatal("excessive cost accepted")
			}
			if _, err := DeriveKey([]byte("pw"), make([]byte, SaltSize), tc.p); err == nil {
				t.Fatal("DeriveKey ran with excessive cost")
			}
		})
	}
}

func TestParamsWeakerThan(t *testing.T) {
	base := Params{AlgorithmID: AlgoArgon2id, MemoryKiB: 1024, Time: 3, Parallelism: 2}

	cases := []struct {
		name   string
		p      Params
		weaker bool
	}{
		{"equal", base, false},
		{"stronger memory", Params{AlgoArgon2id, 2048, 3, 2}, false},
		{"all stronger", Params{AlgoArgon2id, 2048, 4, 4}, false},
		{"lower memory", Params{AlgoArgon2id, 512, 3, 2}, true},
		{"lower time", Params{AlgoArgon2id, 1024, 2, 2}, true},
		{"lower parallelism", Params{AlgoArgon2id, 1024, 3, 1}, true},
		{"mixed up and down", Params{AlgoArgon2id, 4096, 1, 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.WeakerThan(base); got != tc.weaker {
				t.Fatalf("WeakerThan = %v, want %v", got, tc.weaker)
			}
		})
	}
}
