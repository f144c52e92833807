package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/storage"
)

var backupOverwrite bool

var backupCmd = &cobra.Command{
	Use:   "backup <destination>",
	Short: "Copy the committed encrypted vault image",
	Long: `Write the committed vault image to another path. The bytes are already
encrypted; nothing is decrypted during a backup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		src, err := filepath.Abs(vaultPath())
		if err != nil {
			return err
		}
		if dest == src {
			return fmt.Errorf("destination is the live vault, refusing to overwrite it")
		}
		if _, err := os.Stat(dest); err == nil && !backupOverwrite {
			return fmt.Errorf("destination already exists, use --overwrite to replace it")
		}

		v, err := openVault(true)
		if err != nil {
			return err
		}
		defer v.Close()

		data, err := v.ExportSnapshot()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		if err := storage.WriteFileAtomic(dest, data, 0o600); err != nil {
			return err
		}

		color.Green("Backup written to %s", dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().BoolVar(&backupOverwrite, "overwrite", false, "Replace an existing destination file")
}
