package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchDeep bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entries",
	Long: `Search case-insensitively over titles and usernames. With --deep, entries
not already matched are decrypted one at a time so their notes can be
searched too; each plaintext is wiped before the next entry is opened.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(true)
		if err != nil {
			return err
		}
		defer v.Close()

		matches, err := v.Search(args[0], searchDeep)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Printf("No matches for %q\n", args[0])
			return nil
		}

		fmt.Printf("%-36s  %-24s  %s\n", "ID", "Title", "Username")
		for _, e := range matches {
			fmt.Printf("%-36s  %-24s  %s\n", e.ID, e.Title, e.Username)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchDeep, "deep", false, "Also search encrypted notes")
}
