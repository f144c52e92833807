package vault

import "errors"

// Structured outcomes returned to the CLI layer. The engine never prints and
// never embeds secret material in error text.
var (
	// ErrAuthFailed covers both a wrong master password and tampered
	// ciphertext or header fields. The two are deliberately
	// indistinguishable to avoid acting as an oracle.
	ErrAuthFailed = errors.New("authentication failed: wrong password or corrupted vault")

	// ErrCorrupt indicates a malformed or truncated vault image.
	ErrCorrupt = errors.New("vault file is corrupt")

	// ErrUnsupportedVersion indicates a format version this build cannot
	// interpret. Parsing fails closed rather than guessing.
	ErrUnsupportedVersion = errors.New("unsupported vault format version")

	// ErrDowngradeRejected indicates the header carries weaker KDF
	// parameters than the strongest previously accepted for this vault.
	ErrDowngradeRejected = errors.New("kdf parameters weaker than previously accepted")

	// ErrNotFound indicates an unknown entry id.
	ErrNotFound = errors.New("entry not found")

	// ErrBusy indicates another process holds the vault's exclusive lock.
	ErrBusy = errors.New("vault is locked by another process")

	// ErrExists indicates an attempt to create a vault over an existing file.
	ErrExists = errors.New("vault already exists")

	// ErrReadOnly indicates a mutating operation on a read-only handle.
	ErrReadOnly = errors.New("vault opened read-only")

	// ErrTooLarge indicates an entry field that cannot be represented in the
	// vault format's length fields. Rejected before anything is committed.
	ErrTooLarge = errors.New("entry field too large")
)
