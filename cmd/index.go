package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/search"
)

// indexCmd rebuilds the subtitle index
var indexCmd = &cobra.Command{
	Use:   "index [roots...]",
	Short: "Rebuild the subtitle index",
	Long: `Walk the media roots, parse every subtitle file that sits next to a video
and replace the subtitle index with what was found.

Roots default to corpus.roots from the configuration. Only one rebuild can
run at a time; a second one fails immediately.

Example:
  subclip index
  subclip index /media/shows /media/movies`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runIndex(ctx, a, cmd.OutOrStdout(), args)
		})
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(ctx context.Context, a *app, out io.Writer, roots []string) error {
	if len(roots) == 0 {
		roots = a.cfg.Corpus.Roots
	}
	if len(roots) == 0 {
		return errors.New("no media roots given and corpus.roots is not configured")
	}

	run, err := a.indexer.Rebuild(ctx, roots...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Indexed %s subtitle entries from %s subtitle files (%s videos) in %s\n",
		humanize.Comma(int64(run.EntriesIndexed)),
		humanize.Comma(int64(run.SubtitleFiles)),
		humanize.Comma(int64(run.MediaFiles)),
		run.Elapsed().Round(time.Millisecond))
	if run.EntriesSkipped > 0 || run.FilesFailed > 0 {
		fmt.Fprintf(out, "Skipped %d entries, %d files could not be read\n", run.EntriesSkipped, run.FilesFailed)
	}
	return nil
}

func renderIndexStats(out io.Writer, stats *search.Stats) {
	method := "substring"
	if stats.FTSAvailable {
		method = "full-text (fts5)"
	}

	rows := [][]string{
		{"Entries", humanize.Comma(stats.TotalEntries)},
		{"Media files", humanize.Comma(stats.MediaFiles)},
		{"Directories", humanize.Comma(stats.Directories)},
		{"Search method", method},
		{"Database size", formatBytes(stats.DatabaseBytes)},
	}
	for _, lc := range stats.ByLanguage {
		rows = append(rows, []string{"Entries (" + string(lc.Language) + ")", humanize.Comma(lc.Count)})
	}
	if run := stats.LastRun; run != nil {
		rows = append(rows,
			[]string{"Last rebuild", lastRunSummary(run)},
			[]string{"Last rebuild roots", run.Root},
		)
	}

	fmt.Fprintln(out, renderTable([]string{"Index", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func lastRunSummary(run *models.IndexRun) string {
	s := string(run.Status) + ", " + formatTime(run.CompletedAt)
	if run.Status == models.IndexRunFailed && run.ErrorMessage != "" {
		s += ": " + truncate(run.ErrorMessage, 40)
	}
	if run.FilesFailed > 0 {
		s += " (" + strconv.Itoa(run.FilesFailed) + " files failed)"
	}
	return s
}
