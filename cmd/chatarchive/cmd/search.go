package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wkerr/chatarchive/internal/archive"
)

var (
	searchContent     string
	searchSender      string
	searchStartDate   string
	searchEndDate     string
	searchTypes       []string
	searchServices    []string
	searchRead        bool
	searchUnread      bool
	searchAttachments bool
	searchPage        int
	searchPageSize    int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search messages with filters and pagination",
	Example: `  chatarchive search --content "dinner" --sender "+15551234567"
  chatarchive search --start-date 2026-01-01 --end-date 2026-01-31 --service iMessage
  chatarchive search --attachments --page 2 --page-size 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, _, err := openArchive()
		if err != nil {
			return err
		}
		defer arch.Close()

		filters, err := buildFilters()
		if err != nil {
			return err
		}

		result, err := arch.Search(cmd.Context(), filters, searchPage, searchPageSize)
		if err != nil {
			return err
		}

		fmt.Printf("Found %d messages (page %d/%d)\n\n",
			result.TotalCount, result.Page, result.TotalPages)
		for _, m := range result.Messages {
			printMessage(m)
		}
		return nil
	},
}

// buildFilters assembles archive filters from the search flags. Unknown
// type/service values are passed through; the archive drops them silently.
func buildFilters() (archive.Filters, error) {
	f := archive.Filters{
		Content: searchContent,
		Sender:  searchSender,
	}
	for _, t := range searchTypes {
		f.MessageTypes = append(f.MessageTypes, archive.MessageType(t))
	}
	for _, s := range searchServices {
		f.Services = append(f.Services, archive.Service(s))
	}

	if searchStartDate != "" {
		t, err := time.ParseInLocation("2006-01-02", searchStartDate, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid --start-date %q (want YYYY-MM-DD)", searchStartDate)
		}
		f.StartDate = &t
	}
	if searchEndDate != "" {
		t, err := time.ParseInLocation("2006-01-02", searchEndDate, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid --end-date %q (want YYYY-MM-DD)", searchEndDate)
		}
		f.EndDate = &t
	}

	if searchRead {
		v := true
		f.ReadStatus = &v
	} else if searchUnread {
		v := false
		f.ReadStatus = &v
	}
	if searchAttachments {
		v := true
		f.HasAttachments = &v
	}
	return f, nil
}

// printMessage prints one message in the list format shared by search and
// recent.
func printMessage(m archive.Message) {
	ts := "unknown time"
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.Format("2006-01-02 15:04")
	}
	text := m.ResolvedText()
	if text == "" && m.HasAttachment {
		name := "attachment"
		if m.AttachmentName != nil {
			name = *m.AttachmentName
		}
		text = "[" + name + "]"
	}
	fmt.Printf("[%s] %s (%s): %s\n", ts, m.Sender, m.Service, text)
}

func init() {
	searchCmd.Flags().StringVar(&searchContent, "content", "", "substring to search for (case-insensitive)")
	searchCmd.Flags().StringVar(&searchSender, "sender", "", "sender handle (phone or email)")
	searchCmd.Flags().StringVar(&searchStartDate, "start-date", "", "earliest calendar day (YYYY-MM-DD, inclusive)")
	searchCmd.Flags().StringVar(&searchEndDate, "end-date", "", "latest calendar day (YYYY-MM-DD, inclusive)")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "message types: text, attachment")
	searchCmd.Flags().StringSliceVar(&searchServices, "service", nil, "services: iMessage, SMS")
	searchCmd.Flags().BoolVar(&searchRead, "read", false, "only read messages")
	searchCmd.Flags().BoolVar(&searchUnread, "unread", false, "only unread messages")
	searchCmd.Flags().BoolVar(&searchAttachments, "attachments", false, "only messages with attachments")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "page number (1-based)")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 20, "results per page")
	rootCmd.AddCommand(searchCmd)
}
