package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/secret"
)

var (
	rotateMemoryMiB   uint32
	rotateTime        uint32
	rotateParallelism uint8
)

var rotateMasterCmd = &cobra.Command{
	Use:   "rotate-master",
	Short: "Change the master password",
	Long: `Change the master password. Only the wrapped vault key is re-encrypted
(with a fresh salt), so the operation is constant-time in vault size. KDF
parameters may be strengthened at the same time but never weakened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(false)
		if err != nil {
			return err
		}
		defer v.Close()

		newPw, err := readNewPassword("new master password")
		if err != nil {
			return err
		}
		defer secret.Wipe(newPw)

		params := v.Params()
		if rotateMemoryMiB > 0 {
			params.MemoryKiB = rotateMemoryMiB * 1024
		}
		if rotateTime > 0 {
			params.Time = rotateTime
		}
		if rotateParallelism > 0 {
			params.Parallelism = rotateParallelism
		}

		stop := startSpinner("Rewrapping vault key...")
		err = v.ChangeMaster(newPw, params)
		stop()
		if err != nil {
			return err
		}

		color.Green("Master password changed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rotateMasterCmd)
	rotateMasterCmd.Flags().Uint32Var(&rotateMemoryMiB, "memory-mib", 0, "New Argon2id memory cost in MiB (may only increase)")
	rotateMasterCmd.Flags().Uint32Var(&rotateTime, "time", 0, "New Argon2id time cost (may only increase)")
	rotateMasterCmd.Flags().Uint8Var(&rotateParallelism, "parallelism", 0, "New Argon2id parallelism (may only increase)")
}
