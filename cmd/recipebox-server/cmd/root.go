// Package cmd provides the CLI commands of recipebox-server.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/config"
	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/storage"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by all subcommands: the resolved
// configuration and the logger built from it.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	dbDriver   string
	dbDSN      string

	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "recipebox-server",
		Short: "recipebox - recipe API server",
		Long: `recipebox serves a JSON API for users and their recipes.

Configuration is read from defaults, then an optional YAML file (--config),
then RECIPEBOX_* environment variables, then command-line flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (json, console)")
	flags.StringVar(&a.dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	flags.StringVar(&a.dbDSN, "db-dsn", "", "Database DSN or SQLite file path")

	root.AddCommand(
		newServeCmd(a),
		newWaitForDBCmd(a),
		newMigrateCmd(a),
		newCreateSuperuserCmd(a),
		newCompactDBCmd(a),
		newGenSecretCmd(),
		newVerifyTokenCmd(a),
		newHealthcheckCmd(a),
		newVersionCmd(),
	)

	return root
}

// setup loads the configuration and builds the logger before any
// subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = a.dbDriver
	}
	if flags.Changed("db-dsn") {
		cfg.DBDSN = a.dbDSN
	}

	logConfig := cfg.LoggingConfig()
	if cmd.Name() != "serve" {
		// Management commands print their results on stdout.
		logConfig.OutputPaths = []string{"stderr"}
	}
	logger, err := logging.NewLogger(logConfig)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDB validates the database settings and opens a handle.
func (a *app) openDB() (*storage.DB, error) {
	if err := a.cfg.ValidateDatabase(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := storage.Open(a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openMigratedDB opens the database and applies pending migrations.
func (a *app) openMigratedDB(ctx context.Context) (*storage.DB, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	if _, err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return db, nil
}

// versionString returns formatted version information.
func versionString() string {
	return fmt.Sprintf("recipebox %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
