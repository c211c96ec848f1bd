package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the vault index's own bookkeeping",
	RunE:  func(cmd *cobra.Command, args []string) error {
		v, err := openAndUnlock()
		if err != nil {
			return err
		}
		defer v.Lock()

		s, err := v.Stats()
		if err != nil {
			logAndReport(err)
			return err
		}
		fmt.Printf("entries: %d\n", s.EntryCount)
		fmt.Printf("created: %s\n", time.UnixMilli(s.Created).Format(time.RFC3339))
		if s.LastSync != nil {
			fmt.Printf("last sync: %s\n", time.UnixMilli(*s.LastSync).Format(time.RFC3339))
		} else {
			fmt.Println("last sync: never")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
