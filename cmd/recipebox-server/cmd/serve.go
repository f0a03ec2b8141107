package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/api"
	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/media"
	"github.com/yaroslav/recipebox/internal/metrics"
	"github.com/yaroslav/recipebox/internal/ratelimit"
	"github.com/yaroslav/recipebox/internal/server"
	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/internal/storage"
	"github.com/yaroslav/recipebox/pkg/password"
	"github.com/yaroslav/recipebox/pkg/token"
)

type serveOptions struct {
	listenAddr string
	waitForDB  bool
	migrate    bool
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recipe API server",
		Long: `Run the HTTP API on the configured listen address.

Before serving, the command:
  - Creates the media and static directories (mode 0755)
  - Waits for the database to accept connections (--wait-for-db)
  - Applies pending schema migrations (--migrate)

SIGINT and SIGTERM trigger a graceful shutdown bounded by shutdown_timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = opts.listenAddr
			}
			return a.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listenAddr, "listen", "", "Address to listen on (default from config, :8000)")
	cmd.Flags().BoolVar(&opts.waitForDB, "wait-for-db", true, "Wait for the database before serving")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "Apply pending migrations before serving")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg := a.cfg
	logger := a.logger

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if _, err := uuid.Parse(cfg.InstanceID); err != nil {
		return fmt.Errorf("invalid instance ID format: %w", err)
	}

	logger.Info("starting recipebox-server",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String(logging.FieldInstanceID, cfg.InstanceID),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("db_driver", cfg.DBDriver),
	)

	if err := media.EnsureDirs(
		cfg.MediaRoot,
		filepath.Join(cfg.MediaRoot, media.RecipeImageDir),
		cfg.StaticRoot,
	); err != nil {
		return err
	}

	if err := metrics.Init(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.waitForDB {
		err := storage.WaitForDB(ctx, db, storage.WaitOptions{
			Timeout: cfg.WaitForDBTimeout,
			Out:     cmd.OutOrStdout(),
			Logger:  logger,
		})
		if err != nil {
			return err
		}
	}

	if opts.migrate {
		applied, err := storage.Migrate(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Strings("applied", applied))
	}

	users, err := service.NewUserService(db, logger, password.NewHasher(0), token.NewIssuer(cfg.SecretKey, cfg.TokenTTL))
	if err != nil {
		return err
	}
	images := media.NewStore(cfg.MediaRoot, cfg.MaxUploadBytes, logger)
	recipes := service.NewRecipeService(db, logger, images)

	if logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Logger:         logger,
		Users:          users,
		Recipes:        recipes,
		InstanceID:     cfg.InstanceID,
		MediaRoot:      cfg.MediaRoot,
		StaticRoot:     cfg.StaticRoot,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowOrigins:   cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Limits: ratelimit.Config{
			AuthFailuresPerMin:  cfg.LoginFailuresPerMin,
			RegistrationsPerMin: cfg.RegistrationsPerMin,
			ImageUploadsPerMin:  cfg.ImageUploadsPerMin,
		},
	})
	defer router.Close()

	return server.Run(ctx, server.Config{
		Addr:            cfg.ListenAddr,
		Handler:         router,
		Logger:          logger,
		DB:              db,
		StatsInterval:   cfg.DBStatsInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
}
