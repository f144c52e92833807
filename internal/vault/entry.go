package vault

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/keepctl/keepctl/internal/crypto"
	"github.com/keepctl/keepctl/internal/secret"
)

// Entry is one vault record. Title and Username are stored unencrypted so
// listing and search never touch the vault key; the password and notes live
// in the individually sealed Ciphertext.
type Entry struct {
	ID         uuid.UUID
	Title      string
	Username   string
	Nonce      [crypto.NonceSize]byte
	Ciphertext []byte
	CreatedAt  int64
	ModifiedAt int64
}

// Summary is the metadata exposed by List and Search. It never carries
// secret material.
type Summary struct {
	ID         string
	Title      string
	Username   string
	CreatedAt  int64
	ModifiedAt int64
}

func (e *Entry) summary() Summary {
	return Summary{
		ID:         e.ID.String(),
		Title:      e.Title,
		Username:   e.Username,
		CreatedAt:  e.CreatedAt,
		ModifiedAt: e.ModifiedAt,
	}
}

// Secret is a decrypted entry payload. The caller that obtains one owns it
// and must Wipe it; WithSecret does so automatically.
type Secret struct {
	Password []byte
	Notes    []byte
}

// Wipe clears the payload buffers. Idempotent.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	secret.Wipe(s.Password)
	secret.Wipe(s.Notes)
	s.Password = nil
	s.Notes = nil
}

// Payload wire form: [password_len:u16][password][notes].
func encodePayload(password, notes []byte) []byte {
	buf := make([]byte, 0, 2+len(password)+len(notes))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(password)))
	buf = append(buf, password...)
	buf = append(buf, notes...)
	return buf
}

// parsePayload splits a decrypted payload into owned buffers and wipes the
// input, so the only live copies are the ones handed to the caller.
func parsePayload(pt []byte) (*Secret, error) {
	defer secret.Wipe(pt)

	if len(pt) < 2 {
		return nil, ErrCorrupt
	}
	pwLen := int(binary.BigEndian.Uint16(pt))
	if len(pt)-2 < pwLen {
		return nil, ErrCorrupt
	}
	return &Secret{
		Password: append([]byte(nil), pt[2:2+pwLen]...),
		Notes:    append([]byte(nil), pt[2+pwLen:]...),
	}, nil
}

// seal encrypts a fresh payload into the entry with a new nonce. The
// serialized plaintext is wiped before returning. Payloads the wire format
// cannot represent are refused before anything is encrypted.
func (e *Entry) seal(key *secret.Bytes, password, notes []byte) error {
	if len(password) > maxFieldLen {
		return fmt.Errorf("%w: password is %d bytes, limit %d", ErrTooLarge, len(password), maxFieldLen)
	}
	if 2+len(password)+len(notes)+crypto.TagSize > maxCiphertextLen {
		return fmt.Errorf("%w: payload exceeds %d bytes", ErrTooLarge, maxCiphertextLen)
	}

	pt := encodePayload(password, notes)
	defer secret.Wipe(pt)

	nonce, ct, err := crypto.Seal(key.Bytes(), entryAAD(e.ID), pt)
	if err != nil {
		return fmt.Errorf("seal entry: %w", err)
	}
	copy(e.Nonce[:], nonce)
	e.Ciphertext = ct
	return nil
}

// open decrypts the entry payload. Any verification failure surfaces as
// ErrAuthFailed with no plaintext.
func (e *Entry) open(key *secret.Bytes) (*Secret, error) {
	pt, err := crypto.Open(key.Bytes(), e.Nonce[:], entryAAD(e.ID), e.Ciphertext)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return parsePayload(pt)
}

// matchesMeta reports a case-insensitive match against the unencrypted
// fields only.
func (e *Entry) matchesMeta(needle string) bool {
	return strings.Contains(strings.ToLower(e.Title), needle) ||
		strings.Contains(strings.ToLower(e.Username), needle)
}
