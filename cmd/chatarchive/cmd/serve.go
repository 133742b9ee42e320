package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/wkerr/chatarchive/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, hist, err := openArchive()
		if err != nil {
			return err
		}
		defer arch.Close()

		if servePort > 0 {
			cfg.Server.APIPort = servePort
		}

		var histStore api.HistoryStore
		if hist != nil {
			histStore = hist
		}
		server := api.NewServer(cfg, arch, newDetector(), histStore, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
