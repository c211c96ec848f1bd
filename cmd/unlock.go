package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// unlockCmd is a smoke-test command: since every CLI invocation is its own
// process and zeroizes all keys on process exit, there is no
// unlocked session for a later command to observe. This exists to verify
// a passphrase is correct without performing any mutation.
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Verify the vault passphrase without performing any operation",
	Long:  `Check that a passphrase unlocks the vault, then exit.

	Each slasshy invocation is a separate process, so the unlocked state this
	command verifies does not persist to the next command — every other
	subcommand unlocks and locks the vault itself around its own operation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		if !quietFlag {
			color.Green("passphrase accepted")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}
