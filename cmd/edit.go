package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keepctl/keepctl/internal/secret"
	"github.com/keepctl/keepctl/internal/vault"
)

var (
	editTitle    string
	editUsername string
	editNotes    string
	editPassword bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an entry",
	Long: `Edit an entry. With no flags, title and username are prompted with their
current values as defaults and pressing Enter at the password prompt keeps
the existing secret. The payload is re-encrypted with a fresh nonce either way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(false)
		if err != nil {
			return err
		}
		defer v.Close()

		var upd vault.Update
		interactive := !cmd.Flags().Changed("title") &&
			!cmd.Flags().Changed("username") &&
			!cmd.Flags().Changed("notes") && !editPassword

		if interactive {
			var meta *vault.Summary
			for _, e := range v.List() {
				if e.ID == args[0] {
					meta = &e
					break
				}
			}
			if meta == nil {
				return vault.ErrNotFound
			}

			title, err := promptWithDefault("Title", meta.Title)
			if err != nil {
				return err
			}
			username, err := promptWithDefault("Username", meta.Username)
			if err != nil {
				return err
			}
			upd.Title = &title
			upd.Username = &username

			pw, err := readPassword("Password (Enter keeps current): ")
			if err != nil {
				return err
			}
			if len(pw) > 0 {
				defer secret.Wipe(pw)
				upd.Password = pw
			}
		} else {
			if cmd.Flags().Changed("title") {
				upd.Title = &editTitle
			}
			if cmd.Flags().Changed("username") {
				upd.Username = &editUsername
			}
			if cmd.Flags().Changed("notes") {
				upd.Notes = []byte(editNotes)
			}
			if editPassword {
				pw, err := readPassword("New entry password: ")
				if err != nil {
					return err
				}
				defer secret.Wipe(pw)
				upd.Password = pw
			}
		}

		if err := v.Edit(args[0], upd); err != nil {
			return err
		}

		color.Green("Edited entry %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editUsername, "username", "", "New username")
	editCmd.Flags().StringVar(&editNotes, "notes", "", "New notes")
	editCmd.Flags().BoolVar(&editPassword, "password", false, "Prompt for a new entry password")
}
