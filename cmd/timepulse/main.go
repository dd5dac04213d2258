package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/config"
	"github.com/totegamma/timepulse/internal/extract"
	"github.com/totegamma/timepulse/internal/infra/database"
	"github.com/totegamma/timepulse/internal/logging"
	"github.com/totegamma/timepulse/internal/present/rest"
	"github.com/totegamma/timepulse/internal/scheduler"
	"github.com/totegamma/timepulse/internal/tracing"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:          "timepulse",
		Short:        "timesheets, invoicing and workforce management",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/timepulse/config.yaml", "path to the config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(&flags),
		newMigrateCmd(&flags),
		newRemindCmd(&flags),
		newExtractCmd(&flags),
	)
	return cmd
}

func setup(flags *globalFlags) (config.Config, *zap.Logger, error) {
	logger, err := logging.New(flags.debug)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger, nil
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Server.EnableTrace {
				shutdown, err := tracing.Setup(ctx, cfg.Server.TraceEndpoint, "timepulse", timepulse.Version)
				if err != nil {
					return fmt.Errorf("failed to set up tracing: %w", err)
				}
				defer shutdown(context.Background())
			}

			app, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			if cfg.Server.EnableTrace {
				e.Use(otelecho.Middleware("timepulse"))
			}
			e.Use(middleware.Recover())
			e.Use(middleware.CORS())
			e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
				LogURI:     true,
				LogStatus:  true,
				LogMethod:  true,
				LogLatency: true,
				LogError:   true,
				Skipper: func(c echo.Context) bool {
					return c.Path() == "/healthz"
				},
				LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
					fields := []zap.Field{
						zap.String("method", v.Method),
						zap.String("uri", v.URI),
						zap.Int("status", v.Status),
						zap.Duration("latency", v.Latency),
					}
					if v.Error != nil {
						fields = append(fields, zap.Error(v.Error))
					}
					logger.Info("request", fields...)
					return nil
				},
			}))

			handler := rest.NewHandler(cfg, app.usecases)
			handler.RegisterRoutes(e)

			if cfg.Scheduler.Enabled {
				sched, err := scheduler.New(cfg.Scheduler.Cron, app.reminder, logger.Named("scheduler"))
				if err != nil {
					return fmt.Errorf("invalid scheduler.cron: %w", err)
				}
				sched.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()
					sched.Stop(stopCtx)
				}()
				logger.Info("scheduler started", zap.String("cron", cfg.Scheduler.Cron))
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", cfg.Server.Addr))
				if err := e.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.NewPostgres(cfg.Server.PostgresDsn)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}
			if err := database.MigratePostgres(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("migration finished")
			return nil
		},
	}
}

func newRemindCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "run one reminder pass and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			app, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.reminder.Run(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

// newExtractCmd runs the extraction pipeline on local files without touching
// the database.
func newExtractCmd(flags *globalFlags) *cobra.Command {
	var languages []string
	var maxBytes int

	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "print the hours found in timesheet documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(flags.debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			extractor := extract.NewExtractor(extract.NewRecognizer(languages), maxBytes, logger)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				result, err := extractor.Extract(cmd.Context(), filepath.Base(path), "", data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := enc.Encode(map[string]any{"file": path, "result": result}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&languages, "lang", []string{"eng"}, "OCR languages")
	cmd.Flags().IntVar(&maxBytes, "max-bytes", config.DefaultMaxUploadBytes, "largest accepted file")
	return cmd
}
