package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatsLimit int

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List recent chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, _, err := openArchive()
		if err != nil {
			return err
		}
		defer arch.Close()

		chats, err := arch.RecentChats(cmd.Context(), chatsLimit)
		if err != nil {
			return err
		}
		for _, c := range chats {
			name := c.DisplayName
			if name == "" {
				name = strings.Join(c.Participants, ", ")
			}
			kind := ""
			if c.IsGroup {
				kind = " (group)"
			}
			last := ""
			if !c.LastMessageTime.IsZero() {
				last = c.LastMessageTime.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s%s: %d messages, %d unread, last %s\n",
				name, kind, c.MessageCount, c.UnreadCount, last)
		}
		return nil
	},
}

func init() {
	chatsCmd.Flags().IntVar(&chatsLimit, "limit", 20, "maximum chats")
	rootCmd.AddCommand(chatsCmd)
}
