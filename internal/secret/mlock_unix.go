//go:build linux || darwin

package secret

import "golang.org/x/sys/unix"

func lockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	// Best effort: RLIMIT_MEMLOCK may be exhausted, secrets still work unpinned.
	_ = unix.Mlock(b)
}

func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
