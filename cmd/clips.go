package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/clips"
)

var (
	clipsJSON      bool
	clipsStatus    string
	clipsProject   string
	clipsTag       string
	clipsLimit     int
	clipPadding    float64
	clipPriority   int
	clipTags       []string
	clipMessage    string
	purgeOlderThan time.Duration
)

// clipsCmd groups clip request management
var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "Manage clip requests",
	Long: `Create, inspect and fulfil clip requests.

A request starts pending, is claimed by exactly one fulfilment and ends
completed or failed. Administrative overrides can move it anywhere.`,
}

var clipsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clip requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runClipsList(ctx, a, cmd.OutOrStdout(), clips.ListFilter{
				Status:    models.ClipStatus(clipsStatus),
				ProjectID: clipsProject,
				Tag:       clipsTag,
				Limit:     clipsLimit,
			})
		})
	},
}

var clipsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending clip requests in the order workers take them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			reqs, err := a.manager.ListPending(ctx, clipsLimit)
			if err != nil {
				return err
			}
			return printClips(cmd.OutOrStdout(), reqs, int64(len(reqs)))
		})
	},
}

var clipsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one clip request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			req, err := a.manager.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printClip(cmd.OutOrStdout(), req)
		})
	},
}

var clipsCreateCmd = &cobra.Command{
	Use:   "create <media> <start> <end> <sentence>",
	Short: "Create a clip request",
	Long: `Create a pending clip request for a subtitle line.

Example:
  subclip clips create "Show.S01E01" 00:01:02,500 00:01:04,000 "How are you?"
  subclip clips create --project trailer --tag greeting movie.mkv 00:10:00,000 00:10:03,250 "Hello there"`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			req, err := a.manager.Create(ctx, createParams(cmd, args))
			if err != nil {
				return err
			}
			return printClip(cmd.OutOrStdout(), req)
		})
	},
}

var clipsPreviewCmd = &cobra.Command{
	Use:   "preview <media> <start> <end> <sentence>",
	Short: "Cut a scratch clip without storing a request",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			result, err := a.manager.Preview(ctx, createParams(cmd, args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if clipsJSON {
				return writeJSON(out, result)
			}
			fmt.Fprintf(out, "Wrote %s (%s, %.2fs)\n", result.OutputFile, formatBytes(result.SizeBytes), result.DurationSeconds)
			return nil
		})
	},
}

var clipsFulfilCmd = &cobra.Command{
	Use:   "fulfil <id>",
	Short: "Fulfil one pending clip request now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var padding *float64
			if cmd.Flags().Changed("padding") {
				padding = &clipPadding
			}
			return runFulfil(ctx, a, cmd.OutOrStdout(), args[0], padding)
		})
	},
}

var clipsFulfilAllCmd = &cobra.Command{
	Use:   "fulfil-all",
	Short: "Fulfil every pending clip request and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			summary, err := a.workerPool().ProcessPending(ctx)
			out := cmd.OutOrStdout()
			if summary != nil {
				if clipsJSON {
					if jerr := writeJSON(out, summary); jerr != nil {
						return jerr
					}
				} else {
					fmt.Fprintf(out, "Processed %d: %d completed, %d failed, %d skipped\n",
						summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
				}
			}
			return err
		})
	},
}

var clipsSetStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Override a clip request's status",
	Long: `Set a clip request's status directly, bypassing the normal lifecycle.

Setting pending clears the previous result so the request is fulfilled again.

Example:
  subclip clips set-status 3f0c... pending
  subclip clips set-status 3f0c... failed --message "wrong episode"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			status := models.ClipStatus(strings.ToLower(args[1]))
			if err := a.manager.UpdateStatus(ctx, args[0], status, clipMessage); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], status)
			return nil
		})
	},
}

var clipsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete failed clip requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			n, err := a.manager.PurgeFailed(ctx, purgeOlderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d failed clip requests\n", n)
			return nil
		})
	},
}

var clipsProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List clip projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runProjects(ctx, a, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(clipsCmd)
	clipsCmd.AddCommand(clipsListCmd, clipsPendingCmd, clipsShowCmd, clipsCreateCmd, clipsPreviewCmd,
		clipsFulfilCmd, clipsFulfilAllCmd, clipsSetStatusCmd, clipsPurgeCmd, clipsProjectsCmd)

	clipsCmd.PersistentFlags().BoolVar(&clipsJSON, "json", false, "print output as JSON")

	clipsListCmd.Flags().StringVar(&clipsStatus, "status", "", "filter by status")
	clipsListCmd.Flags().StringVar(&clipsProject, "project", "", "filter by project id")
	clipsListCmd.Flags().StringVar(&clipsTag, "tag", "", "filter by tag")
	for _, c := range []*cobra.Command{clipsListCmd, clipsPendingCmd} {
		c.Flags().IntVar(&clipsLimit, "limit", 50, "maximum requests to show")
	}

	for _, c := range []*cobra.Command{clipsCreateCmd, clipsPreviewCmd} {
		c.Flags().Float64Var(&clipPadding, "padding", models.DefaultPaddingSeconds, "seconds added before and after the line")
		c.Flags().IntVar(&clipPriority, "priority", 0, "priority 1 (first) to 10 (last)")
		c.Flags().StringVar(&clipsProject, "project", "", "project name to file the clip under")
		c.Flags().StringSliceVar(&clipTags, "tag", nil, "tags for the request")
	}
	clipsFulfilCmd.Flags().Float64Var(&clipPadding, "padding", 0, "override the request's padding in seconds")

	clipsSetStatusCmd.Flags().StringVar(&clipMessage, "message", "", "error message recorded when setting failed")
	clipsPurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "only delete failures older than this (0 deletes all)")
}

func createParams(cmd *cobra.Command, args []string) clips.CreateParams {
	params := clips.CreateParams{
		MediaFile: args[0],
		StartTime: args[1],
		EndTime:   args[2],
		Sentence:  args[3],
		Priority:  clipPriority,
		Project:   clipsProject,
		Tags:      clipTags,
	}
	if cmd.Flags().Changed("padding") {
		pad := clipPadding
		params.Padding = &pad
	}
	return params
}

func runClipsList(ctx context.Context, a *app, out io.Writer, filter clips.ListFilter) error {
	reqs, total, err := a.manager.List(ctx, filter)
	if err != nil {
		return err
	}
	return printClips(out, reqs, total)
}

func runFulfil(ctx context.Context, a *app, out io.Writer, id string, padding *float64) error {
	result, err := a.manager.Fulfil(ctx, id, padding)
	if err != nil {
		return err
	}
	if clipsJSON {
		return writeJSON(out, result)
	}
	if !result.Success {
		return fmt.Errorf("clip request %s failed: %s", id, result.Error)
	}
	fmt.Fprintf(out, "Completed %s: %s\n", id, result.OutputFile)
	return nil
}

func runProjects(ctx context.Context, a *app, out io.Writer) error {
	projects, err := a.manager.ListProjects(ctx)
	if err != nil {
		return err
	}
	if clipsJSON {
		return writeJSON(out, projects)
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		created := p.CreatedAt
		rows = append(rows, []string{
			p.ID,
			truncate(p.Name, 30),
			string(p.Type),
			string(p.Status),
			strconv.FormatInt(p.Total, 10),
			strconv.FormatInt(p.Pending, 10),
			strconv.FormatInt(p.Completed, 10),
			strconv.FormatInt(p.Failed, 10),
			formatTime(&created),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Type", "Status", "Total", "Pending", "Done", "Failed", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func printClips(out io.Writer, reqs []*models.ClipRequest, total int64) error {
	if clipsJSON {
		return writeJSON(out, reqs)
	}
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No clip requests")
		return nil
	}
	fmt.Fprintln(out, renderTable(clipHeaders, clipRows(reqs), nil))
	fmt.Fprintf(out, "Showing %d of %s\n", len(reqs), humanize.Comma(total))
	return nil
}

func printClip(out io.Writer, req *models.ClipRequest) error {
	if clipsJSON {
		return writeJSON(out, req)
	}

	project := "-"
	if req.Project != nil {
		project = req.Project.Name
	}
	created := req.CreatedAt
	rows := [][]string{
		{"ID", req.ID},
		{"Status", string(req.Status)},
		{"Type", string(req.ClipType)},
		{"Project", project},
		{"Priority", strconv.Itoa(req.Priority)},
		{"Sentence", req.Sentence},
		{"Media", req.MediaFile},
		{"Window", fmt.Sprintf("%s → %s (±%.1fs)", req.StartTime, req.EndTime, req.PaddingSeconds)},
		{"Tags", strings.Join(req.TagNames(), ", ")},
		{"Created", formatTime(&created)},
		{"Completed", formatTime(req.CompletedAt)},
	}
	if req.OutputFile != "" {
		rows = append(rows,
			[]string{"Output", req.OutputFile},
			[]string{"Size", formatBytes(req.FileSize)},
			[]string{"Duration", strconv.FormatFloat(req.DurationSeconds, 'f', 2, 64) + "s"},
		)
	}
	if req.ErrorMessage != "" {
		rows = append(rows, []string{"Error", req.ErrorMessage})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}
