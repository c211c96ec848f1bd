package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		if err := v.Delete(args[0]); err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("deleted %s", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
