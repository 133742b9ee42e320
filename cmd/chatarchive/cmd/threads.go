package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	threadsLimit   int
	threadsRelated bool
	threadsVerbose bool
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Segment messages into conversation threads",
	Long: `Searches messages with the same filters as 'search', then partitions the
results into logical threads by temporal proximity and topical continuity.`,
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

		result, err := arch.Search(cmd.Context(), filters, 1, threadsLimit)
		if err != nil {
			return err
		}

		detector := newDetector()
		threads := detector.DetectThreads(result.Messages)

		fmt.Printf("%d messages in %d threads\n\n", len(result.Messages), len(threads))
		for _, t := range threads {
			start := "?"
			if !t.StartTime.IsZero() {
				start = t.StartTime.Format("2006-01-02 15:04")
			}
			fmt.Printf("Thread %d: %d messages, %s, %.1f min\n  %s\n",
				t.ID, len(t.Messages), start, t.DurationMinutes, t.TopicSummary)
			if threadsVerbose {
				for _, m := range t.Messages {
					fmt.Print("  ")
					printMessage(m)
				}
			}
		}

		if threadsRelated {
			groups := detector.FindRelatedThreads(threads, cfg.Threads.MaxDaysApart)
			if len(groups) == 0 {
				fmt.Println("\nNo related thread groups found.")
				return nil
			}
			fmt.Println("\nRelated thread groups:")
			for _, g := range groups {
				fmt.Printf("  %v\n", g)
			}
		}
		return nil
	},
}

func init() {
	threadsCmd.Flags().AddFlagSet(searchCmd.Flags())
	threadsCmd.Flags().IntVar(&threadsLimit, "limit", 500, "maximum messages to segment")
	threadsCmd.Flags().BoolVar(&threadsRelated, "related", false, "also detect related thread groups")
	threadsCmd.Flags().BoolVar(&threadsVerbose, "messages", false, "print each thread's messages")
	rootCmd.AddCommand(threadsCmd)
}
