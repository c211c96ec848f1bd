package cmd

import (
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entry titles for a substring",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		summaries, err := v.Search(args[0])
		if err != nil {
			logAndReport(err)
			return err
		}
		printSummaries(summaries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
