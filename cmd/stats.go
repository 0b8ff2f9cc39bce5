package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/clips"
	"github.com/killallgit/subclip/internal/services/search"
)

var statsJSON bool

// statsCmd summarises the index and the clip queue
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and clip statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runStats(ctx, a, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")
}

func runStats(ctx context.Context, a *app, out io.Writer) error {
	index, err := a.indexer.Stats(ctx)
	if err != nil {
		return err
	}
	clipStats, err := a.manager.Stats(ctx)
	if err != nil {
		return err
	}

	if statsJSON {
		return writeJSON(out, struct {
			Index *search.Stats `json:"index"`
			Clips *clips.Stats  `json:"clips"`
		}{index, clipStats})
	}

	renderIndexStats(out, index)
	renderClipStats(out, clipStats)
	return nil
}

func renderClipStats(out io.Writer, stats *clips.Stats) {
	rows := [][]string{{"Requests", humanize.Comma(stats.Total)}}
	for _, s := range []models.ClipStatus{
		models.ClipStatusPending,
		models.ClipStatusProcessing,
		models.ClipStatusCompleted,
		models.ClipStatusFailed,
	} {
		rows = append(rows, []string{"  " + string(s), humanize.Comma(stats.ByStatus[s])})
	}
	rows = append(rows,
		[]string{"Created today", humanize.Comma(stats.CreatedToday)},
		[]string{"Average clip length", fmt.Sprintf("%.1fs", stats.AverageDurationSeconds)},
		[]string{"Clips on disk", formatBytes(stats.TotalSizeBytes)},
	)
	fmt.Fprintln(out, renderTable([]string{"Clips", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
