package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the XChaCha20-Poly1305 key size in bytes.
	KeySize = chacha20poly1305.KeySize

	// NonceSize is the extended 192-bit nonce size. Nonces are drawn
	// fresh from crypto/rand for every seal; at this width random
	// collision under one key is negligible for the lifetime of a vault.
	NonceSize = chacha20poly1305.NonceSizeX

	// TagSize is the Poly1305 authentication tag size.
	TagSize = chacha20poly1305.Overhead
)

// ErrAuth is returned when a ciphertext, tag, or its associated data fails
// authentication. Callers cannot distinguish a wrong key from tampering.
var ErrAuth = errors.New("crypto: message authentication failed")

// Seal encrypts plaintext with XChaCha20-Poly1305 under key, binding aad to
// the ciphertext. A fresh random nonce is generated per call and returned
// alongside the ciphertext (which carries the tag as its suffix).
func Seal(key, aad, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, aad)
	return nonce, ciphertext, nil
}

// Open authenticates and decrypts a ciphertext produced by Seal. On any
// verification failure it returns ErrAuth and no plaintext bytes.
func Open(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	if len(nonce) != NonceSize {
		return nil, ErrAuth
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuth
	}
	return plaintext, nil
}
