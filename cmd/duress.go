package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var duressCmd = &cobra.Command{
	Use:   "duress",
	Short: "Configure a duress passphrase that unlocks an empty decoy vault",
	Long:  `Configure a second passphrase that, when used to unlock this vault,
presents an empty decoy index instead of the real one.

The real vault is never revealed under a duress unlock: it stays sealed
behind the original passphrase. Whether the last unlock was real or
duress is only observable programmatically, never printed to the
terminal, so an onlooker watching the screen cannot tell the two apart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		passphrase, err := resolvePassphrase("Choose a duress passphrase")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		confirm := promptui.Prompt{
			Label: "Confirm duress passphrase",
			Mask:  '*',
			Validate: func(input string) error {
				if input != passphrase {
					return fmt.Errorf("passphrases do not match")
				}
				return nil
			},
		}
		if _, err := confirm.Run(); err != nil {
			return fmt.Errorf("passphrase confirmation failed: %w", err)
		}

		if err := v.ConfigureDuress(passphrase); err != nil {
			logAndReport(err)
			return err
		}
		if !quietFlag {
			color.Green("duress passphrase configured")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duressCmd)
}
