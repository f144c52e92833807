package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/keepctl/keepctl/internal/crypto"
)

// Binary vault layout, all integers big-endian:
//
//	[magic "KEEP":4][version:u16]
//	[kdf_algorithm_id:u8][memory_cost_kib:u32][time_cost:u32][parallelism:u8]
//	[salt:32]
//	[wrap_nonce:24][wrapped_vault_key+tag:48]
//	[entry_count:u32]
//	per entry:
//	  [id:16][title_len:u16][title][username_len:u16][username]
//	  [entry_nonce:24][ct_len:u32][secret_ciphertext+tag]
//	  [created_unix:i64][modified_unix:i64]
//
// The header prefix through the salt is the associated data of the key wrap,
// so the wrap tag authenticates the version and KDF parameters. Each entry's
// payload is authenticated individually with the magic, version, and entry id
// as associated data.

const (
	formatVersion = 1

	wrappedKeySize = crypto.KeySize + crypto.TagSize

	// magic..salt: 4+2+1+4+4+1+32
	headerAADSize = 48
	// headerAADSize + wrap nonce + wrapped key
	headerSize = headerAADSize + crypto.NonceSize + wrappedKeySize

	// Upper bound on a single entry's ciphertext, to keep corrupt length
	// fields from driving huge allocations.
	maxCiphertextLen = 16 << 20

	// Title, username, and password lengths travel in u16 fields; anything
	// longer would be silently truncated mod 65536 on encode.
	maxFieldLen = 1<<16 - 1
)

var magic = [4]byte{'K', 'E', 'E', 'P'}

// Header is the authenticated vault preamble.
type Header struct {
	Version    uint16
	KDF        crypto.Params
	Salt       [crypto.SaltSize]byte
	WrapNonce  [crypto.NonceSize]byte
	WrappedKey [wrappedKeySize]byte
}

// aad returns the header bytes covered by the key-wrap tag.
func (h *Header) aad() []byte {
	buf := make([]byte, 0, headerAADSize)
	buf = append(buf, magic[:]...)
	buf = binary.BigEndian.AppendUint16(buf, h.Version)
	buf = append(buf, h.KDF.AlgorithmID)
	buf = binary.BigEndian.AppendUint32(buf, h.KDF.MemoryKiB)
	buf = binary.BigEndian.AppendUint32(buf, h.KDF.Time)
	buf = append(buf, h.KDF.Parallelism)
	buf = append(buf, h.Salt[:]...)
	return buf
}

func (h *Header) encode() []byte {
	buf := h.aad()
	buf = append(buf, h.WrapNonce[:]...)
	buf = append(buf, h.WrappedKey[:]...)
	return buf
}

// entryAAD binds an entry's ciphertext to this vault format and entry id so
// a sealed payload cannot be transplanted onto another entry or context.
func entryAAD(id uuid.UUID) []byte {
	buf := make([]byte, 0, 4+2+16)
	buf = append(buf, magic[:]...)
	buf = binary.BigEndian.AppendUint16(buf, formatVersion)
	buf = append(buf, id[:]...)
	return buf
}

// encodeImage serializes the complete vault: header plus every entry. The
// result contains no plaintext secrets, only metadata and ciphertexts.
func encodeImage(h *Header, entries []Entry) []byte {
	buf := h.encode()
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(entries)))
	for i := range entries {
		buf = appendEntry(buf, &entries[i])
	}
	return buf
}

func appendEntry(buf []byte, e *Entry) []byte {
	buf = append(buf, e.ID[:]...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(e.Title)))
	buf = append(buf, e.Title...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(e.Username)))
	buf = append(buf, e.Username...)
	buf = append(buf, e.Nonce[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(e.Ciphertext)))
	buf = append(buf, e.Ciphertext...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.CreatedAt))
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.ModifiedAt))
	return buf
}

// imageReader walks a serialized vault, failing with ErrCorrupt on any
// truncation instead of panicking on short input.
type imageReader struct {
	data []byte
	off  int
}

func (r *imageReader) take(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, ErrCorrupt
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *imageReader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *imageReader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *imageReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *imageReader) i64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *imageReader) remaining() int {
	return len(r.data) - r.off
}

// parseHeader reads the vault preamble. Unknown versions fail closed.
func parseHeader(r *imageReader) (Header, error) {
	var h Header

	m, err := r.take(4)
	if err != nil {
		return h, err
	}
	if !bytes.Equal(m, magic[:]) {
		return h, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	if h.Version, err = r.u16(); err != nil {
		return h, err
	}
	if h.Version != formatVersion {
		return h, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}

	if h.KDF.AlgorithmID, err = r.u8(); err != nil {
		return h, err
	}
	if h.KDF.MemoryKiB, err = r.u32(); err != nil {
		return h, err
	}
	if h.KDF.Time, err = r.u32(); err != nil {
		return h, err
	}
	if h.KDF.Parallelism, err = r.u8(); err != nil {
		return h, err
	}
	if err := h.KDF.Validate(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	salt, err := r.take(crypto.SaltSize)
	if err != nil {
		return h, err
	}
	copy(h.Salt[:], salt)

	nonce, err := r.take(crypto.NonceSize)
	if err != nil {
		return h, err
	}
	copy(h.WrapNonce[:], nonce)

	wrapped, err := r.take(wrappedKeySize)
	if err != nil {
		return h, err
	}
	copy(h.WrappedKey[:], wrapped)

	return h, nil
}

func parseEntries(r *imageReader) ([]Entry, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	// Each entry occupies at least its fixed fields; a count that cannot fit
	// in the remaining bytes is a length-field forgery or truncation.
	const minEntrySize = 16 + 2 + 2 + crypto.NonceSize + 4 + crypto.TagSize + 8 + 8
	if int(count) > r.remaining()/minEntrySize {
		return nil, fmt.Errorf("%w: entry count %d exceeds image size", ErrCorrupt, count)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := parseEntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.remaining())
	}
	return entries, nil
}

func parseEntry(r *imageReader) (Entry, error) {
	var e Entry

	id, err := r.take(16)
	if err != nil {
		return e, err
	}
	copy(e.ID[:], id)

	titleLen, err := r.u16()
	if err != nil {
		return e, err
	}
	title, err := r.take(int(titleLen))
	if err != nil {
		return e, err
	}
	e.Title = string(title)

	userLen, err := r.u16()
	if err != nil {
		return e, err
	}
	user, err := r.take(int(userLen))
	if err != nil {
		return e, err
	}
	e.Username = string(user)

	nonce, err := r.take(crypto.NonceSize)
	if err != nil {
		return e, err
	}
	copy(e.Nonce[:], nonce)

	ctLen, err := r.u32()
	if err != nil {
		return e, err
	}
	if ctLen < crypto.TagSize || ctLen > maxCiphertextLen {
		return e, fmt.Errorf("%w: ciphertext length %d", ErrCorrupt, ctLen)
	}
	ct, err := r.take(int(ctLen))
	if err != nil {
		return e, err
	}
	e.Ciphertext = append([]byte(nil), ct...)

	if e.CreatedAt, err = r.i64(); err != nil {
		return e, err
	}
	if e.ModifiedAt, err = r.i64(); err != nil {
		return e, err
	}

	return e, nil
}
