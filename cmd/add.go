package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/secret"
)

var (
	addTitle    string
	addUsername string
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new entry",
	Long:  `Add a new entry to the vault. The secret is prompted for, never passed as a flag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addTitle == "" {
			return fmt.Errorf("--title is required")
		}

		v, err := openVault(false)
		if err != nil {
			return err
		}
		defer v.Close()

		pw, err := readPassword("Entry password: ")
		if err != nil {
			return err
		}
		defer secret.Wipe(pw)

		id, err := v.Add(addTitle, addUsername, pw, []byte(addNotes))
		if err != nil {
			return err
		}

		color.Green("Added entry %s", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addTitle, "title", "", "Entry title (required)")
	addCmd.Flags().StringVar(&addUsername, "username", "", "Username")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Notes (stored encrypted)")
}
