package cmd

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// copyWithClear places text on the clipboard and, after the timeout, puts
// the previous contents back (or blanks it). Blocking keeps the clear inside
// this process's lifetime.
func copyWithClear(text string, seconds int) error {
	prev, _ := clipboard.ReadAll()

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	if seconds <= 0 {
		fmt.Println("Copied to clipboard.")
		return nil
	}

	fmt.Printf("Copied to clipboard. Clearing in %ds...\n", seconds)
	time.Sleep(time.Duration(seconds) * time.Second)

	if err := clipboard.WriteAll(prev); err != nil {
		return clipboard.WriteAll("")
	}
	return nil
}
