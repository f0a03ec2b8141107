package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/storage"
)

func newWaitForDBCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait-for-db",
		Short: "Wait until the database accepts connections",
		Long: `Ping the database every --interval until it answers.

Each failed attempt prints "Database unavailable, waiting 1 second..."
(for the default interval). The command fails when --timeout expires.
A timeout of 0 waits forever.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.WaitForDBTimeout
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			a.logger.Debug("waiting for database",
				zap.String(logging.FieldDBDriver, db.Driver()),
				zap.Duration("interval", interval),
				zap.Duration("timeout", timeout),
			)

			return storage.WaitForDB(cmd.Context(), db, storage.WaitOptions{
				Interval: interval,
				Timeout:  timeout,
				Out:      cmd.OutOrStdout(),
				Logger:   a.logger,
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between attempts")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (default from config, 0 waits forever)")

	return cmd
}
