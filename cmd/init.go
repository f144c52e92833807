package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/secret"
	"github.com/keepctl/keepctl/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long:  `Initialize a new encrypted vault protected by a master password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := vaultPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("vault already exists at %s", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}

		pw, err := readNewPassword("master password")
		if err != nil {
			return err
		}
		defer secret.Wipe(pw)

		stop := startSpinner("Deriving key...")
		v, err := vault.Create(path, pw, cfg.KDFParams())
		stop()
		if err != nil {
			return err
		}
		defer v.Close()

		if err := cfg.SaveConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
		}

		color.Green("Vault created at %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
