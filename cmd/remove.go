package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(false)
		if err != nil {
			return err
		}
		defer v.Close()

		if !removeForce && !confirm(fmt.Sprintf("Delete entry %s?", args[0])) {
			fmt.Println("Aborted.")
			return nil
		}

		if err := v.Delete(args[0]); err != nil {
			return err
		}

		color.Green("Deleted entry %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Skip the confirmation prompt")
}
