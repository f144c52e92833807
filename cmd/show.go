package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/vault"
)

var showCopy bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry's secret",
	Long: `Decrypt exactly one entry and print it, or copy the password to the
clipboard with --copy (cleared again after the configured timeout).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(true)
		if err != nil {
			return err
		}
		defer v.Close()

		var meta *vault.Summary
		for _, e := range v.List() {
			if e.ID == args[0] {
				meta = &e
				break
			}
		}

		return v.WithSecret(args[0], func(s *vault.Secret) error {
			if showCopy {
				return copyWithClear(string(s.Password), cfg.ClipboardClearSeconds)
			}

			if meta != nil {
				fmt.Printf("Title:    %s\n", meta.Title)
				fmt.Printf("Username: %s\n", meta.Username)
			}
			fmt.Printf("Password: %s\n", s.Password)
			if len(s.Notes) > 0 {
				fmt.Printf("Notes:    %s\n", s.Notes)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showCopy, "copy", false, "Copy the password to the clipboard instead of printing it")
}
