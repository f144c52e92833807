// Package secret provides scoped ownership of sensitive byte buffers so that
// master passwords, derived keys, and decrypted payloads are overwritten on
// every exit path rather than left to the garbage collector.
package secret

// Wipe overwrites b with zeros. Safe on nil and empty slices.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WithBytes runs fn over b and wipes b when fn returns, on success and
// failure alike. fn must not retain references to b past its return.
func WithBytes(b []byte, fn func([]byte) error) error {
	defer Wipe(b)
	return fn(b)
}

// Bytes owns a secret buffer for the lifetime of a scope. Destroy wipes the
// buffer; the zero value is an empty, already-destroyed buffer.
type Bytes struct {
	buf []byte
}

// New takes ownership of b. The memory is pinned (mlock) on platforms that
// support it, best effort.
func New(b []byte) *Bytes {
	lockMemory(b)
	return &Bytes{buf: b}
}

// Bytes exposes the underlying buffer. The slice is invalid after Destroy.
func (s *Bytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.buf
}

// Len returns the buffer length.
func (s *Bytes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.buf)
}

// Destroy wipes and releases the buffer. Idempotent.
func (s *Bytes) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	Wipe(s.buf)
	unlockMemory(s.buf)
	s.buf = nil
}
