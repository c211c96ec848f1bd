package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Report that the vault is always locked between commands",
	Long:  `Every other slasshy command unlocks the vault, performs its one
	operation, and locks again before the process exits, so there is never a
	standing unlocked session for this command to close.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !quietFlag {
			fmt.Println("vault has no standing session; it is already locked")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
