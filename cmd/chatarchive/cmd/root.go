// Package cmd implements the chatarchive command-line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wkerr/chatarchive/internal/archive"
	"github.com/wkerr/chatarchive/internal/config"
	"github.com/wkerr/chatarchive/internal/history"
	"github.com/wkerr/chatarchive/internal/thread"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatarchive",
	Short: "Read-only iMessage archive search and thread analysis",
	Long: `chatarchive mines the local Messages chat history for display, search,
and conversation-thread analysis. It reads chat.db directly (read-only),
recovers text from rich-text payloads, and segments message streams into
logical threads.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Archive.DatabasePath = dbPath
		}
		return nil
	},
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openArchive opens the configured Messages database with the search-history
// sink attached. History failures are non-fatal: search must still work.
func openArchive() (*archive.Archive, *history.Store, error) {
	opts := []archive.Option{archive.WithLogger(logger)}

	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logger.Warn("search history unavailable", "error", err)
		hist = nil
	} else {
		opts = append(opts, archive.WithRecorder(hist))
	}

	arch, err := archive.Open(cfg.Archive.DatabasePath, opts...)
	if err != nil {
		return nil, nil, err
	}
	return arch, hist, nil
}

// newDetector builds a thread detector from configuration.
func newDetector() *thread.Detector {
	d := thread.NewDetector()
	if cfg.Threads.TimeGapHours > 0 {
		d.TimeGapHours = cfg.Threads.TimeGapHours
	}
	if cfg.Threads.SimilarityThreshold > 0 {
		d.SimilarityThreshold = cfg.Threads.SimilarityThreshold
	}
	return d
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.chatarchive/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to chat.db (default: ~/Library/Messages/chat.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
