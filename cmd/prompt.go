package cmd

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"

	"github.com/keepctl/keepctl/internal/secret"
	"github.com/keepctl/keepctl/internal/vault"
)

// readPassword prompts without echo. The returned buffer is secret; callers
// wipe it when done.
func readPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}

// readNewPassword prompts twice and enforces the master password policy.
func readNewPassword(label string) ([]byte, error) {
	pw1, err := readPassword("Enter " + label + ": ")
	if err != nil {
		return nil, err
	}

	if err := validateMasterPassword(pw1); err != nil {
		secret.Wipe(pw1)
		return nil, err
	}

	pw2, err := readPassword("Confirm " + label + ": ")
	if err != nil {
		secret.Wipe(pw1)
		return nil, err
	}
	defer secret.Wipe(pw2)

	if subtle.ConstantTimeCompare(pw1, pw2) != 1 {
		secret.Wipe(pw1)
		return nil, errors.New("passwords do not match")
	}
	return pw1, nil
}

// validateMasterPassword applies the master password policy. It inspects the
// buffer in place without making copies.
func validateMasterPassword(pw []byte) error {
	if len(pw) < 12 {
		return errors.New("master password must be at least 12 characters long")
	}
	var hasLetter, hasDigit bool
	for _, b := range pw {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
			hasLetter = true
		case b >= '0' && b <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("master password must mix letters and digits")
	}
	return nil
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptWithDefault keeps the current value when the user just presses Enter.
func promptWithDefault(label, current string) (string, error) {
	line, err := readLine(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil {
		return "", err
	}
	if line == "" {
		return current, nil
	}
	return line, nil
}

func confirm(prompt string) bool {
	line, err := readLine(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	return line == "y" || line == "Y"
}

// startSpinner shows progress while the deliberately slow KDF runs.
func startSpinner(message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}

// openVault prompts for the master password and opens the configured vault.
// The password buffer is wiped before returning.
func openVault(readOnly bool) (*vault.Vault, error) {
	pw, err := readPassword("Enter master password: ")
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(pw)

	stop := startSpinner("Unlocking vault...")
	v, err := vault.Open(vaultPath(), pw, vault.Options{ReadOnly: readOnly})
	stop()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no vault at %s. Run 'keepctl init' first", vaultPath())
		}
		return nil, err
	}
	return v, nil
}
