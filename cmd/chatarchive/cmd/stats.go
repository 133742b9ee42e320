package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, _, err := openArchive()
		if err != nil {
			return err
		}
		defer arch.Close()

		count, err := arch.MessageCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Messages: %d\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
