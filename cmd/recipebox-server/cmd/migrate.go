package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := storage.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "No migrations to apply.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "  Applying %s... OK\n", name)
			}
			a.logger.Info("migrations applied", zap.Strings("applied", applied))
			return nil
		},
	}
}
