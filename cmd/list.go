package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/slasshy/vault/internal/vaultindex"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every entry in the vault",
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		summaries, err := v.List()
		if err != nil {
			logAndReport(err)
			return err
		}
		printSummaries(summaries)
		return nil
	},
}

func printSummaries(summaries []vaultindex.IndexSummary) {
	if len(summaries) == 0 {
		fmt.Println("no entries")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTITLE\tFAVORITE\tMODIFIED")
	for _, s := range summaries {
		modified := time.UnixMilli(s.Modified).Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", s.ID, s.Kind, s.Title, s.Favorite, modified)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
