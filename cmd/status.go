package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vault's on-disk layout without unlocking it",
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}
		paths := v.GetPaths()
		fmt.Printf("vault dir: %s\n", paths.Dir)
		fmt.Printf("records dir: %s\n", paths.Records)
		fmt.Printf("carriers dir: %s\n", paths.Carriers)
		fmt.Printf("initialized: %v\n", v.Exists())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
