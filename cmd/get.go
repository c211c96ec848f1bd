package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slasshy/vault/internal/progress"
	"github.com/slasshy/vault/internal/vaultindex"
)

var getPullCloud bool
var getOutputPath string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Retrieve and decrypt an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		id := args[0]
		if getPullCloud {
			spinner := progress.Start("pulling carriers from cloud", quietFlag)
			err := v.PullFromCloud(context.Background(), id)
			spinner.Stop()
			if err != nil {
				logAndReport(err)
				return err
			}
		}

		entry, err := v.Get(id)
		if err != nil {
			logAndReport(err)
			return err
		}

		if entry.Kind == vaultindex.KindFile && getOutputPath != "" {
			data, err := v.GetFileBytes(id)
			if err != nil {
				logAndReport(err)
				return err
			}
			if err := os.WriteFile(getOutputPath, data, 0o600); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !quietFlag {
				color.Green("wrote %s", getOutputPath)
			}
			return nil
		}

		printEntry(entry)
		return nil
	},
}

func printEntry(entry *vaultindex.Entry) {
	fmt.Printf("id: %s\n", entry.ID)
	fmt.Printf("kind: %s\n", entry.Kind)
	fmt.Printf("title: %s\n", entry.Title)
	fmt.Printf("favorite: %v\n", entry.Favorite)
	if entry.Category != "" {
		fmt.Printf("category: %s\n", entry.Category)
	}
	switch entry.Kind {
	case vaultindex.KindCredential:
		c := entry.Credential
		fmt.Printf("username: %s\n", c.Username)
		fmt.Printf("password: %s\n", c.Password)
		if c.URL != "" {
			fmt.Printf("url: %s\n", c.URL)
		}
		if c.Notes != "" {
			fmt.Printf("notes: %s\n", c.Notes)
		}
	case vaultindex.KindNote:
		fmt.Printf("content:\n%s\n", entry.Note.Content)
	case vaultindex.KindFile:
		f := entry.File
		fmt.Printf("file: %s (%s, %d bytes)\n", f.OriginalName, f.MimeType, f.Size)
		fmt.Printf("sha256: %s\n", f.SHA256)
		fmt.Println("use --output <path> to write the decrypted bytes to disk")
	}
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getPullCloud, "pull-cloud", false, "pull the entry's carriers from the cloud collaborator before reading")
	getCmd.Flags().StringVar(&getOutputPath, "output", "", "write a file entry's decrypted bytes to this path instead of printing metadata")
}
