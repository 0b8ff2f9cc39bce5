package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/killallgit/subclip/internal/models"
)

// migrateCmd applies the database schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Create or update the subclip tables and the full-text index.

Every command applies the schema when it opens the database, so running this
explicitly is only needed to prepare a database ahead of time. The full-text
index is only created by binaries built with -tags sqlite_fts5.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Schema applied to %s\n", a.db.Path())
			return nil
		})
	},
}

// migrateStatusCmd shows what the schema contains
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tables and row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runMigrateStatus(ctx, a, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateStatus(ctx context.Context, a *app, out io.Writer) error {
	migrator := a.db.DB.Migrator()

	rows := make([][]string, 0, len(models.AllModels())+1)
	for _, m := range models.AllModels() {
		stmt := &gorm.Statement{DB: a.db.DB}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("parsing model: %w", err)
		}
		table := stmt.Schema.Table

		if !migrator.HasTable(m) {
			rows = append(rows, []string{table, "missing", "-"})
			continue
		}
		var count int64
		if err := a.db.DB.WithContext(ctx).Model(m).Count(&count).Error; err != nil {
			return fmt.Errorf("counting %s: %w", table, err)
		}
		rows = append(rows, []string{table, "ok", humanize.Comma(count)})
	}

	fts := "unavailable, using substring search"
	if a.store.FTSAvailable() {
		fts = "ok"
	}
	rows = append(rows, []string{"subtitles_fts", fts, "-"})

	fmt.Fprintln(out, renderTable([]string{"Table", "Status", "Rows"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	fmt.Fprintf(out, "Database %s (%s)\n", a.db.Path(), formatBytes(a.db.Size()))
	return nil
}
