package cmd

import (
	"github.com/spf13/cobra"
)

var (
	recentHandle string
	recentLimit  int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, _, err := openArchive()
		if err != nil {
			return err
		}
		defer arch.Close()

		messages, err := arch.RecentMessages(cmd.Context(), recentHandle, recentLimit)
		if err != nil {
			return err
		}
		for _, m := range messages {
			printMessage(m)
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().StringVar(&recentHandle, "from", "", "restrict to one handle (phone or email)")
	recentCmd.Flags().IntVar(&recentLimit, "limit", 10, "maximum messages")
	rootCmd.AddCommand(recentCmd)
}
