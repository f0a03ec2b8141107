package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/storage"
)

func newCompactDBCmd(a *app) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "compact-db",
		Short: "Compact the SQLite database to reclaim space",
		Long: `Run VACUUM, and ANALYZE unless disabled, on the SQLite database and print
a size report with per-table row counts. PostgreSQL is refused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			a.logger.Info("compacting database", zap.String("dsn", a.cfg.DBDSN))
			fmt.Fprintln(out, "Running VACUUM (this may take a while)...")

			res, err := storage.CompactSQLite(ctx, db, analyze)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Database size before: %.2f MB (%d pages x %d bytes)\n",
				megabytes(res.SizeBefore()), res.PagesBefore, res.PageSize)
			fmt.Fprintf(out, "Database size after:  %.2f MB (%d pages x %d bytes)\n",
				megabytes(res.SizeAfter()), res.PagesAfter, res.PageSize)
			fmt.Fprintf(out, "Space reclaimed:      %.2f MB (%.1f%%)\n",
				megabytes(res.Reclaimed()), percent(res.Reclaimed(), res.SizeBefore()))
			if analyze {
				fmt.Fprintln(out, "ANALYZE completed")
			}

			a.logger.Info("VACUUM completed",
				zap.Int64("size_before", res.SizeBefore()),
				zap.Int64("size_after", res.SizeAfter()),
				zap.Int64("saved", res.Reclaimed()),
			)

			counts, err := storage.TableCounts(ctx, db)
			if err != nil {
				a.logger.Warn("failed to count table rows", zap.Error(err))
				return nil
			}

			tables := make([]string, 0, len(counts))
			for table := range counts {
				tables = append(tables, table)
			}
			sort.Strings(tables)

			fmt.Fprintln(out, "\nTable Statistics:")
			for _, table := range tables {
				fmt.Fprintf(out, "  %-20s %d rows\n", table+":", counts[table])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", true, "Run ANALYZE after VACUUM")
	return cmd
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
