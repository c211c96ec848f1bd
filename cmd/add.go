package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/slasshy/vault/internal/progress"
	"github.com/slasshy/vault/internal/vaultindex"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry to the vault",
}

var (
	addUsername string
	addPassword string
	addURL string
	addNotes string
	addPushCloud bool
)

var addCredentialCmd = &cobra.Command{
	Use:   "credential <title>",
	Short: "Add a credential entry",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		password := addPassword
		if password == "" {
			prompt := promptui.Prompt{Label: "Password", Mask: '*'}
			password, err = prompt.Run()
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		entry, err := v.AddCredential(args[0], vaultindex.CredentialFields{
			Username: addUsername,
			Password: password,
			URL:      addURL,
			Notes:    addNotes,
		})
		if err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("added credential %s (id %s)", entry.Title, entry.ID)
		}
		return nil
	},
}

var addNoteCmd = &cobra.Command{
	Use:   "note <title> <content>",
	Short: "Add a note entry",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		entry, err := v.AddNote(args[0], args[1])
		if err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("added note %s (id %s)", entry.Title, entry.ID)
		}
		return nil
	},
}

var addFileCmd = &cobra.Command{
	Use:   "file <title> <source-path>",
	Short: "Add a file entry",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		entry, err := v.AddFile(args[0], args[1], addNotes)
		if err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("added file %s (id %s)", entry.Title, entry.ID)
		}

		if addPushCloud {
			spinner := progress.Start("pushing carriers to cloud", quietFlag)
			err := v.PushToCloud(context.Background(), entry.ID)
			spinner.Stop()
			if err != nil {
				logAndReport(err)
				return err
			}
			if !quietFlag {
				color.Green("pushed %s to cloud carriers", entry.ID)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addCredentialCmd, addNoteCmd, addFileCmd)

	addCredentialCmd.Flags().StringVar(&addUsername, "username", "", "credential username")
	addCredentialCmd.Flags().StringVar(&addPassword, "password", "", "credential password (prompted if omitted)")
	addCredentialCmd.Flags().StringVar(&addURL, "url", "", "credential URL")
	addCredentialCmd.Flags().StringVar(&addNotes, "notes", "", "credential notes")

	addFileCmd.Flags().StringVar(&addNotes, "notes", "", "file notes")
	addFileCmd.Flags().BoolVar(&addPushCloud, "push", false, "fragment, embed, and push the file's record to the cloud collaborator")
}
