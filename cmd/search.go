package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/search"
)

type searchOptions struct {
	language    string
	limit       int
	file        string
	perSentence int
	json        bool
}

var searchOpts searchOptions

// searchCmd searches the subtitle index
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search subtitles",
	Long: `Search the subtitle index for a phrase.

With --file every English sentence in the file ("-" reads stdin) is searched
on its own and the results are grouped per sentence.

Example:
  subclip search "how are you"
  subclip search --lang ko 안녕하세요
  subclip search --file script.txt --per-sentence 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchOpts.file == "" && len(args) == 0 {
			return fmt.Errorf("a query or --file is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if searchOpts.file != "" {
				return runBatchSearch(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout(), searchOpts)
			}
			return runSearch(ctx, a, cmd.OutOrStdout(), strings.Join(args, " "), searchOpts)
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchOpts.language, "lang", "", "only search one language (en, ko)")
	searchCmd.Flags().IntVar(&searchOpts.limit, "limit", 0, "maximum results (defaults to search.default_limit)")
	searchCmd.Flags().StringVar(&searchOpts.file, "file", "", "search every sentence of a text file, - for stdin")
	searchCmd.Flags().IntVar(&searchOpts.perSentence, "per-sentence", 5, "results per sentence with --file")
	searchCmd.Flags().BoolVar(&searchOpts.json, "json", false, "print results as JSON")
}

func runSearch(ctx context.Context, a *app, out io.Writer, query string, opts searchOptions) error {
	resp, err := a.store.Search(ctx, search.Query{
		Text:     query,
		Language: models.Language(opts.language),
		Limit:    opts.limit,
	})
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, resp)
	}

	if len(resp.Results) == 0 {
		fmt.Fprintf(out, "No matches for %q\n", resp.Query)
		return nil
	}
	fmt.Fprintln(out, renderTable(resultHeaders, resultRows(resp.Results), resultAligns))
	fmt.Fprintf(out, "%d results (%s)\n", len(resp.Results), resp.Method)
	return nil
}

func runBatchSearch(ctx context.Context, a *app, in io.Reader, out io.Writer, opts searchOptions) error {
	var (
		data []byte
		err  error
	)
	if opts.file == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(opts.file)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.file, err)
	}

	resp, err := a.store.BatchSearch(ctx, string(data), opts.perSentence)
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, resp)
	}

	for _, s := range resp.Sentences {
		fmt.Fprintf(out, "%s\n", s.Sentence)
		if len(s.Results) == 0 {
			fmt.Fprintln(out, "  no matches")
			continue
		}
		fmt.Fprintln(out, renderTable(resultHeaders, resultRows(s.Results), resultAligns))
	}
	fmt.Fprintf(out, "%d sentences, %d results, %.1f per sentence, %s\n",
		resp.TotalSentences, resp.TotalResults, resp.AverageResults, resp.Elapsed.Round(time.Microsecond))
	return nil
}

var (
	resultHeaders = []string{"Conf", "Text", "Title", "Start", "End", "Lang"}
	resultAligns  = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
)

func resultRows(results []search.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			truncate(r.Text, 50),
			truncate(r.Title, 24),
			r.StartTime,
			r.EndTime,
			string(r.Language),
		})
	}
	return rows
}
