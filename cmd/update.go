package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slasshy/vault/internal/vaultindex"
)

var (
	updateTitle string
	updateCategory string
	updateUsername string
	updatePassword string
	updateURL string
	updateNotes string
	updateContent string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Patch a credential or note entry",
	Long:  `File entries are immutable via update; delete and re-add instead.`,
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		patch := vaultindex.Patch{}
		if cmd.Flags().Changed("title") {
			patch.Title = &updateTitle
		}
		if cmd.Flags().Changed("category") {
			patch.Category = &updateCategory
		}
		if cmd.Flags().Changed("username") {
			patch.Username = &updateUsername
		}
		if cmd.Flags().Changed("password") {
			patch.Password = &updatePassword
		}
		if cmd.Flags().Changed("url") {
			patch.URL = &updateURL
		}
		if cmd.Flags().Changed("notes") {
			patch.CredNotes = &updateNotes
		}
		if cmd.Flags().Changed("content") {
			patch.NoteText = &updateContent
		}

		entry, err := v.Update(args[0], patch)
		if err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("updated %s", entry.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "new category")
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "new credential username")
	updateCmd.Flags().StringVar(&updatePassword, "password", "", "new credential password")
	updateCmd.Flags().StringVar(&updateURL, "url", "", "new credential URL")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "new credential notes")
	updateCmd.Flags().StringVar(&updateContent, "content", "", "new note content")
}
