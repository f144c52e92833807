package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	Long:  `List entry ids, titles, and usernames. No secret payload is decrypted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(true)
		if err != nil {
			return err
		}
		defer v.Close()

		entries := v.List()
		if len(entries) == 0 {
			fmt.Println("(vault is empty)")
			return nil
		}

		fmt.Printf("%-36s  %-24s  %-24s  %s\n", "ID", "Title", "Username", "Modified")
		for _, e := range entries {
			fmt.Printf("%-36s  %-24s  %-24s  %s\n",
				e.ID, e.Title, e.Username,
				time.Unix(e.ModifiedAt, 0).Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
