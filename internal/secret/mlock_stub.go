//go:build !linux && !darwin

package secret

func lockMemory(b []byte)   {}
func unlockMemory(b []byte) {}
