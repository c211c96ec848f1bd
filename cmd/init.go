package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/slasshy/vault/internal/vaulterrors"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long:  `Initialize a new, empty vault sealed under a passphrase.

	Example:
	slasshy init --vault-dir ~/.slasshy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}

		passphrase, err := resolvePassphrase("Choose a vault passphrase")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		confirm := promptui.Prompt{
			Label:    "Confirm passphrase",
			Mask:     '*',
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

		if err := v.Init(passphrase); err != nil {
			logAndReport(err)
			if errors.Is(err, vaulterrors.ErrAlreadyInitialized) {
				return err
			}
			return fmt.Errorf("internal error")
		}

		if !quietFlag {
			color.Green("vault initialized at %s", v.GetPaths().Dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
