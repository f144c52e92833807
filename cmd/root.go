package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/config"
)

var (
	cfg           *config.Config
	vaultPathFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keepctl",
	Short: "A local, offline encrypted password vault",
	Long: `keepctl stores credentials and notes in a single encrypted file.
All cryptography happens locally under a master password; there is no
network component and nothing ever leaves the machine.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultPathFlag, "vault", "", "Path to the vault file (overrides config)")
}

func vaultPath() string {
	if vaultPathFlag != "" {
		return vaultPathFlag
	}
	return cfg.VaultPath
}
