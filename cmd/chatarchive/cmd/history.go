package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wkerr/chatarchive/internal/history"
)

var (
	historyLimit   int
	historyPopular bool
	historyClear   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear recorded searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return err
		}

		if historyClear {
			if err := hist.Clear(); err != nil {
				return err
			}
			fmt.Println("Search history cleared.")
			return nil
		}

		var entries []history.Entry
		if historyPopular {
			entries = hist.Popular(historyLimit)
		} else {
			entries = hist.Recent(historyLimit)
		}
		if len(entries) == 0 {
			fmt.Println("No recorded searches.")
			return nil
		}
		for _, e := range entries {
			desc := describeCriteria(e)
			fmt.Printf("%s  %s (%d results)\n",
				e.Timestamp.Format("2006-01-02 15:04"), desc, e.ResultCount)
		}
		return nil
	},
}

func describeCriteria(e history.Entry) string {
	c := e.Criteria
	parts := []string{}
	if c.Content != "" {
		parts = append(parts, fmt.Sprintf("content=%q", c.Content))
	}
	if c.Sender != "" {
		parts = append(parts, "sender="+c.Sender)
	}
	if c.StartDate != "" || c.EndDate != "" {
		parts = append(parts, fmt.Sprintf("dates=%s..%s", c.StartDate, c.EndDate))
	}
	if len(parts) == 0 {
		return "(no filters)"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum entries")
	historyCmd.Flags().BoolVar(&historyPopular, "popular", false, "sort by result count")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "clear all history")
	rootCmd.AddCommand(historyCmd)
}
