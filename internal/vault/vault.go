// Package vault implements the encrypted vault engine: key derivation and
// two-tier wrapping, the authenticated binary file format, the lazily
// decrypted entry store, and atomic commits. It returns structured errors
// only and never prints or logs.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keepctl/keepctl/internal/crypto"
	"github.com/keepctl/keepctl/internal/secret"
	"github.com/keepctl/keepctl/internal/storage"
)

// Vault is an open vault session. A read-write handle holds the exclusive
// advisory lock for its whole lifetime; the in-memory vault key and any
// decrypted payloads are owned by the handle's operations and wiped when
// their scope ends.
type Vault struct {
	path     string
	header   Header
	key      *secret.Bytes
	entries  []Entry
	index    map[uuid.UUID]int
	lock     *storage.Lock
	readOnly bool
}

// Options controls how a vault is opened.
type Options struct {
	// ReadOnly skips the exclusive lock. List, Show, Search, and
	// ExportSnapshot work; mutating operations fail with ErrReadOnly.
	ReadOnly bool
}

// Create initializes a new vault file at path, protected by password with
// the given KDF parameters. The master password buffer is wiped by the
// caller; the KEK derived from it lives only inside this call.
func Create(path string, password []byte, params crypto.Params) (*Vault, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, ErrExists
	}

	lock, err := storage.Acquire(path)
	if err != nil {
		return nil, lockErr(err)
	}

	v, err := createLocked(path, password, params)
	if err != nil {
		lock.Release()
		return nil, err
	}
	v.lock = lock
	return v, nil
}

func createLocked(path string, password []byte, params crypto.Params) (*Vault, error) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}

	vk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	key := secret.New(vk)

	h := Header{Version: formatVersion, KDF: params}
	copy(h.Salt[:], salt)

	if err := wrapKey(&h, password, key); err != nil {
		key.Destroy()
		return nil, err
	}

	v := &Vault{
		path:   path,
		header: h,
		key:    key,
		index:  make(map[uuid.UUID]int),
	}
	if err := v.commit(); err != nil {
		key.Destroy()
		return nil, err
	}
	if err := recordStrength(path, params); err != nil {
		key.Destroy()
		return nil, err
	}
	return v, nil
}

// wrapKey derives a KEK from password and h's salt/params, seals the vault
// key into h, and wipes the KEK before returning.
func wrapKey(h *Header, password []byte, key *secret.Bytes) error {
	kek, err := crypto.DeriveKey(password, h.Salt[:], h.KDF)
	if err != nil {
		return err
	}
	defer secret.Wipe(kek)

	nonce, ct, err := crypto.Seal(kek, h.aad(), key.Bytes())
	if err != nil {
		return fmt.Errorf("wrap vault key: %w", err)
	}
	copy(h.WrapNonce[:], nonce)
	copy(h.WrappedKey[:], ct)
	return nil
}

// Open loads the vault at path. It parses and validates the header, enforces
// the monotonic KDF-strength policy, derives the KEK (deliberately slow),
// unwraps the vault key, and indexes entries without decrypting any payload.
func Open(path string, password []byte, opts Options) (*Vault, error) {
	var lock *storage.Lock
	if !opts.ReadOnly {
		var err error
		if lock, err = storage.Acquire(path); err != nil {
			return nil, lockErr(err)
		}
	}

	v, err := openLocked(path, password)
	if err != nil {
		lock.Release()
		return nil, err
	}
	v.lock = lock
	v.readOnly = opts.ReadOnly
	return v, nil
}

func openLocked(path string, password []byte) (*Vault, error) {
	data, err := storage.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}

	r := &imageReader{data: data}
	h, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	if err := checkStrength(path, h.KDF); err != nil {
		return nil, err
	}

	kek, err := crypto.DeriveKey(password, h.Salt[:], h.KDF)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(kek)

	vk, err := crypto.Open(kek, h.WrapNonce[:], h.aad(), h.WrappedKey[:])
	if err != nil {
		return nil, ErrAuthFailed
	}
	key := secret.New(vk)

	entries, err := parseEntries(r)
	if err != nil {
		key.Destroy()
		return nil, err
	}

	if err := recordStrength(path, h.KDF); err != nil {
		key.Destroy()
		return nil, err
	}

	v := &Vault{
		path:    path,
		header:  h,
		key:     key,
		entries: entries,
		index:   make(map[uuid.UUID]int, len(entries)),
	}
	for i := range entries {
		v.index[entries[i].ID] = i
	}
	return v, nil
}

func lockErr(err error) error {
	if errors.Is(err, storage.ErrLocked) {
		return ErrBusy
	}
	return err
}

// Close wipes the vault key and releases the lock. The handle is unusable
// afterwards.
func (v *Vault) Close() error {
	v.key.Destroy()
	lock := v.lock
	v.lock = nil
	return lock.Release()
}

// Path returns the vault file path.
func (v *Vault) Path() string { return v.path }

// Params returns the KDF parameters currently recorded in the header.
func (v *Vault) Params() crypto.Params { return v.header.KDF }

// Len returns the number of entries.
func (v *Vault) Len() int { return len(v.entries) }

// List returns entry metadata in stored order. No payload is decrypted.
func (v *Vault) List() []Summary {
	out := make([]Summary, len(v.entries))
	for i := range v.entries {
		out[i] = v.entries[i].summary()
	}
	return out
}

// validateMeta refuses metadata the format's u16 length fields cannot hold.
func validateMeta(title, username string) error {
	if len(title) > maxFieldLen {
		return fmt.Errorf("%w: title is %d bytes, limit %d", ErrTooLarge, len(title), maxFieldLen)
	}
	if len(username) > maxFieldLen {
		return fmt.Errorf("%w: username is %d bytes, limit %d", ErrTooLarge, len(username), maxFieldLen)
	}
	return nil
}

func (v *Vault) resolve(id string) (int, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	i, ok := v.index[uid]
	if !ok {
		return 0, ErrNotFound
	}
	return i, nil
}

// Show decrypts exactly one entry's payload. The caller owns the returned
// Secret and must Wipe it; prefer WithSecret.
func (v *Vault) Show(id string) (*Secret, error) {
	i, err := v.resolve(id)
	if err != nil {
		return nil, err
	}
	return v.entries[i].open(v.key)
}

// WithSecret decrypts one entry's payload, runs fn over it, and wipes the
// plaintext on every exit path.
func (v *Vault) WithSecret(id string, fn func(*Secret) error) error {
	s, err := v.Show(id)
	if err != nil {
		return err
	}
	defer s.Wipe()
	return fn(s)
}

// Add creates a new entry with a freshly sealed payload and commits. The
// returned id is the entry's sole external handle.
func (v *Vault) Add(title, username string, password, notes []byte) (string, error) {
	if v.readOnly {
		return "", ErrReadOnly
	}
	if err := validateMeta(title, username); err != nil {
		return "", err
	}

	now := time.Now().Unix()
	e := Entry{
		ID:         uuid.New(),
		Title:      title,
		Username:   username,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := e.seal(v.key, password, notes); err != nil {
		return "", err
	}

	v.entries = append(v.entries, e)
	v.index[e.ID] = len(v.entries) - 1

	if err := v.commit(); err != nil {
		v.entries = v.entries[:len(v.entries)-1]
		delete(v.index, e.ID)
		return "", err
	}
	return e.ID.String(), nil
}

// Update mutates an entry. Nil secret fields keep their current value; the
// payload is always re-sealed with a fresh nonce, and the current plaintext
// is wiped before returning.
type Update struct {
	Title    *string
	Username *string
	Password []byte // nil keeps the existing password
	Notes    []byte // nil keeps the existing notes
}

// Edit applies upd to the entry and commits. The previous committed image
// stays in place if the commit fails.
func (v *Vault) Edit(id string, upd Update) error {
	if v.readOnly {
		return ErrReadOnly
	}
	var title, username string
	if upd.Title != nil {
		title = *upd.Title
	}
	if upd.Username != nil {
		username = *upd.Username
	}
	if err := validateMeta(title, username); err != nil {
		return err
	}
	i, err := v.resolve(id)
	if err != nil {
		return err
	}
	e := &v.entries[i]

	cur, err := e.open(v.key)
	if err != nil {
		return err
	}
	defer cur.Wipe()

	password := cur.Password
	if upd.Password != nil {
		password = upd.Password
	}
	notes := cur.Notes
	if upd.Notes != nil {
		notes = upd.Notes
	}

	prev := *e
	if err := e.seal(v.key, password, notes); err != nil {
		return err
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Username != nil {
		e.Username = *upd.Username
	}
	e.ModifiedAt = time.Now().Unix()

	if err := v.commit(); err != nil {
		*e = prev
		return err
	}
	return nil
}

// Delete removes an entry by id and commits.
func (v *Vault) Delete(id string) error {
	if v.readOnly {
		return ErrReadOnly
	}
	i, err := v.resolve(id)
	if err != nil {
		return err
	}

	removed := v.entries[i]
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	v.reindex()

	if err := v.commit(); err != nil {
		v.entries = append(v.entries[:i], append([]Entry{removed}, v.entries[i:]...)...)
		v.reindex()
		return err
	}
	return nil
}

func (v *Vault) reindex() {
	v.index = make(map[uuid.UUID]int, len(v.entries))
	for i := range v.entries {
		v.index[v.entries[i].ID] = i
	}
}

// Search matches query case-insensitively against titles and usernames.
// With deep set, entries the metadata did not already resolve are decrypted
// one at a time, their notes inspected, and the plaintext wiped before the
// next entry is touched.
func (v *Vault) Search(query string, deep bool) ([]Summary, error) {
	needle := strings.ToLower(query)
	var out []Summary

	for i := range v.entries {
		e := &v.entries[i]
		if e.matchesMeta(needle) {
			out = append(out, e.summary())
			continue
		}
		if !deep {
			continue
		}

		s, err := e.open(v.key)
		if err != nil {
			return nil, err
		}
		lower := bytes.ToLower(s.Notes)
		match := bytes.Contains(lower, []byte(needle))
		secret.Wipe(lower)
		s.Wipe()

		if match {
			out = append(out, e.summary())
		}
	}
	return out, nil
}

// ChangeMaster rewraps the vault key under a KEK derived from newPassword
// with a fresh salt and the given parameters, then commits. Entry
// ciphertexts are untouched: the operation is O(1) in vault size. Weaker
// parameters than the current header's are refused.
func (v *Vault) ChangeMaster(newPassword []byte, params crypto.Params) error {
	if v.readOnly {
		return ErrReadOnly
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if params.WeakerThan(v.header.KDF) {
		return ErrDowngradeRejected
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	next := v.header
	next.KDF = params
	copy(next.Salt[:], salt)

	if err := wrapKey(&next, newPassword, v.key); err != nil {
		return err
	}

	prev := v.header
	v.header = next
	if err := v.commit(); err != nil {
		v.header = prev
		return err
	}
	return recordStrength(v.path, params)
}

// ExportSnapshot returns the committed on-disk image: already-encrypted
// bytes suitable for a plain file-copy backup.
func (v *Vault) ExportSnapshot() ([]byte, error) {
	return storage.ReadSnapshot(v.path)
}

// commit serializes the full vault image and replaces the committed file
// atomically. A failure anywhere before the rename leaves the previous
// image observable and intact.
func (v *Vault) commit() error {
	img := encodeImage(&v.header, v.entries)
	if err := storage.WriteFileAtomic(v.path, img, 0o600); err != nil {
		return fmt.Errorf("commit vault: %w", err)
	}
	return nil
}
