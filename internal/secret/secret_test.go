package secret

import (
	"bytes"
	"errors"
	"testing"
)

func TestWipe(t *testing.T) {
	b := []byte("hunter2")
	Wipe(b)
	if !bytes.Equal(b, make([]byte, len(b))) {
		t.Fatalf("buffer not zeroed: %q", b)
	}
	Wipe(nil) // must not panic
}

func TestWithBytesWipesOnSuccess(t *testing.T) {
	b := []byte("sensitive")
	err := WithBytes(b, func(inner []byte) error {
		if !bytes.Equal(inner, []byte("sensitive")) {
			t.Fatalf("callback saw %q", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithBytes: %v", err)
	}
	if !bytes.Equal(b, make([]byte, len(b))) {
		t.Fatalf("buffer not zeroed after success: %q", b)
	}
}

func TestWithBytesWipesOnError(t *testing.T) {
	b := []byte("sensitive")
	sentinel := errors.New("boom")
	if err := WithBytes(b, func([]byte) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if !bytes.Equal(b, make([]byte, len(b))) {
		t.Fatalf("buffer not zeroed after error: %q", b)
	}
}

func TestBytesDestroy(t *testing.T) {
	backing := []byte("vault-key-material")
	s := New(backing)

	if s.Len() != len(backing) {
		t.Fatalf("Len = %d, want %d", s.Len(), len(backing))
	}
	if !bytes.Equal(s.Bytes(), backing) {
		t.Fatal("Bytes does not expose the backing buffer")
	}

	s.Destroy()
	if !bytes.Equal(backing, make([]byte, len(backing))) {
		t.Fatalf("backing buffer not zeroed: %q", backing)
	}
	if s.Bytes() != nil {
		t.Fatal("Bytes non-nil after Destroy")
	}
	if s.Len() != 0 {
		t.Fatal("Len non-zero after Destroy")
	}

	s.Destroy() // idempotent

	var nilBytes *Bytes
	nilBytes.Destroy() // nil receiver must not panic
	if nilBytes.Bytes() != nil || nilBytes.Len() != 0 {
		t.Fatal("nil receiver accessors not zero-valued")
	}
}
