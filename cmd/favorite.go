package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle an entry's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		entry, err := v.ToggleFavorite(args[0])
		if err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("%s favorite: %v", entry.ID, entry.Favorite)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}
