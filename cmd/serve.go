package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/api"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/services/cleanup"
	"github.com/killallgit/subclip/pkg/ffmpeg"
)

var (
	serverHost    string
	serverPort    int
	serveRebuild  bool
	serveNoWorker bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the subclip HTTP API together with the background clip workers and
the maintenance loop.

Example:
  subclip serve
  subclip serve --port 9090
  subclip serve --host 0.0.0.0 --rebuild

Build with -tags sqlite_fts5 (make build) for ranked full-text search.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
	serveCmd.Flags().BoolVar(&serveRebuild, "rebuild", false, "rebuild the subtitle index before serving")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-workers", false, "do not fulfil clip requests in the background")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := *appConfig
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	log := logging.Component("serve")
	ctx := cmd.Context()

	a, err := newApp(ctx, &cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ff := ffmpeg.New(cfg.Clips.FFmpegPath, cfg.Clips.FFprobePath, cfg.Clips.TranscodeTimeout)
	if err := ff.ValidateBinaries(); err != nil {
		log.WithError(err).Warn("ffmpeg not available, clip fulfilment will fail")
	}

	if serveRebuild && len(cfg.Corpus.Roots) > 0 {
		if err := runIndex(ctx, a, cmd.OutOrStdout(), nil); err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
	}

	pool := a.workerPool()
	defer pool.Stop()
	if !serveNoWorker {
		if err := pool.Start(ctx); err != nil {
			return err
		}
	}

	maintenance := cleanup.NewService(a.manager, a.layout, cleanup.Options{
		Interval:         cfg.Cleanup.Interval,
		StaleAfter:       cfg.Processing.StaleAfter,
		PurgeFailedAfter: cfg.Cleanup.PurgeFailedAfter,
		TempMaxAge:       cfg.Cleanup.TempMaxAge,
	})
	maintenance.Start(ctx)
	defer maintenance.Stop()

	server := api.NewServer(&cfg, &types.Dependencies{
		DB:         a.db,
		Search:     a.store,
		Indexer:    a.indexer,
		Clips:      a.manager,
		WorkerPool: pool,
		Roots:      cfg.Corpus.Roots,
		Version:    Version,
	})
	if err := server.Initialize(); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithFields(logrus.Fields{
		"addr":    server.Addr(),
		"workers": pool.Size(),
	}).Info("subclip is ready")

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("server stopped unexpectedly")
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return err
	}

	log.Info("server gracefully stopped")
	return nil
}
