package cmd

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/secret"
)

var (
	genLength    int
	genNoUpper   bool
	genNoLower   bool
	genNoDigits  bool
	genNoSymbols bool
	genCopy      bool
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a random password",
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := generatePassword(genLength, genNoUpper, genNoLower, genNoDigits, genNoSymbols)
		if err != nil {
			return err
		}
		defer secret.Wipe(pw)

		strength := zxcvbn.PasswordStrength(string(pw), nil)
		fmt.Printf("Strength: %d/4 (crack time %s)\n", strength.Score, strength.CrackTimeDisplay)

		if genCopy {
			return copyWithClear(string(pw), cfg.ClipboardClearSeconds)
		}
		fmt.Printf("%s\n", pw)
		return nil
	},
}

// Ambiguous glyphs (I, l, 1, 0, O) are left out of the alphabets.
var (
	genUppers  = []byte("ABCDEFGHJKLMNPQRSTUVWXYZ")
	genLowers  = []byte("abcdefghijkmnopqrstuvwxyz")
	genDigits  = []byte("23456789")
	genSymbols = []byte("!@#$%^&*()[]{}-_=+:;,.?/")
)

// generatePassword draws uniformly from the enabled character classes,
// guarantees at least one character per enabled class, and shuffles.
func generatePassword(length int, noUpper, noLower, noDigits, noSymbols bool) ([]byte, error) {
	var buckets [][]byte
	if !noUpper {
		buckets = append(buckets, genUppers)
	}
	if !noLower {
		buckets = append(buckets, genLowers)
	}
	if !noDigits {
		buckets = append(buckets, genDigits)
	}
	if !noSymbols {
		buckets = append(buckets, genSymbols)
	}

	if len(buckets) == 0 {
		return nil, errors.New("all character classes disabled")
	}
	if length < len(buckets) {
		return nil, fmt.Errorf("length %d too short for %d required character classes", length, len(buckets))
	}

	var union []byte
	for _, b := range buckets {
		union = append(union, b...)
	}

	out := make([]byte, 0, length)
	for _, b := range buckets {
		c, err := pickOne(b)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pickOne(union)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	// Fisher-Yates, so the guaranteed class characters don't cluster up front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func pickOne(alphabet []byte) (byte, error) {
	i, err := randIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

// randIndex returns a uniform index in [0, n) by rejection sampling.
func randIndex(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("empty alphabet")
	}
	n32 := uint32(n)
	limit := ^uint32(0) - (^uint32(0) % n32)
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("read random bytes: %w", err)
		}
		x := binary.BigEndian.Uint32(buf[:])
		if x < limit {
			return int(x % n32), nil
		}
	}
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().IntVar(&genLength, "length", 20, "Password length")
	genCmd.Flags().BoolVar(&genNoUpper, "no-upper", false, "Exclude uppercase letters")
	genCmd.Flags().BoolVar(&genNoLower, "no-lower", false, "Exclude lowercase letters")
	genCmd.Flags().BoolVar(&genNoDigits, "no-digits", false, "Exclude digits")
	genCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "Exclude symbols")
	genCmd.Flags().BoolVar(&genCopy, "copy", false, "Copy to clipboard instead of printing")
}
