package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/pkg/config"
)

// skipConfig marks commands that run without loading configuration
const skipConfig = "skip-config"

// appConfig is loaded before any command that needs it runs
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "subclip",
	Short: "Subtitle search and clip extraction",
	Long: `subclip indexes the subtitles that sit next to a video library, searches
them, and cuts video clips for the lines you pick.

Features:
  • Subtitle indexing of .srt files next to videos (English and Korean)
  • Full-text search with confidence ranking, falling back to substring matching
  • Clip requests with priorities, projects and tags
  • Clip extraction with ffmpeg, from the CLI, the HTTP API or background workers

Ranked full-text search needs SQLite's FTS5 module, which go-sqlite3 only
compiles in with the sqlite_fts5 build tag:
  make build            (go build -tags sqlite_fts5)
Without the tag every search uses the substring scan.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "settings file (default ./config/settings.yaml, or $SUBCLIP_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// initConfig loads configuration and sets up logging for commands that need it
func initConfig(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG", path); err != nil {
			return err
		}
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.Logging.Level
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		level = f.Value.String()
	}
	format := cfg.Logging.Format
	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		format = "json"
	}
	if err := logging.Init(level, format); err != nil {
		return err
	}

	appConfig = cfg
	return nil
}
