/*
Copyright © 2025 slasshy
*/

// Package cmd is the Cobra command tree for the slasshy vault CLI: one
// root command plus one file per subcommand.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	vaultDirFlag string
	cloudFlag string
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "slasshy",
	Short: "slasshy - a zero-knowledge steganographic personal vault",
	Long:  `slasshy stores credentials, notes, and files in an encrypted index,
	optionally hiding their fragments inside PNG carriers so a collaborator
	holding only the images learns nothing about what they contain.`,
}

// Execute adds all child commands to the root command and executes it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultDirFlag, "vault-dir", ".", "directory holding the vault's index.bin")
	rootCmd.PersistentFlags().StringVar(&cloudFlag, "cloud", "memory", "cloud collaborator to use for carrier pushes/pulls (memory, none)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")
}
