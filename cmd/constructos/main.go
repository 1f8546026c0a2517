// @title			ConstructOS API
// @version		1.0
// @description	Progress rollup and status tracking for a construction project's work breakdown.
// @BasePath		/api/v1

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mtlprog/constructos/internal/config"
	"github.com/mtlprog/constructos/internal/database"
	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/handler"
	"github.com/mtlprog/constructos/internal/logger"
	"github.com/mtlprog/constructos/internal/middleware"
	"github.com/mtlprog/constructos/internal/repository"
	"github.com/mtlprog/constructos/internal/repository/memstore"
	"github.com/mtlprog/constructos/internal/seed"
	"github.com/mtlprog/constructos/internal/service"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	portFlag := &cli.StringFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Usage:   "HTTP server port",
		EnvVars: []string{"PORT"},
	}
	seedFileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "YAML seed file (defaults to the bundled sample project)",
		EnvVars: []string{"SEED_FILE"},
	}

	app := &cli.App{
		Name:  "constructos",
		Usage: "Progress tracking for construction projects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML project file",
				EnvVars: []string{"CONSTRUCTOS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   string(logger.FormatJSON),
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = c.String("log-level")
			}
			if c.IsSet("database-url") {
				cfg.Database.URL = c.String("database-url")
			}

			logger.Setup(logger.ParseLevel(cfg.LogLevel), logger.Format(c.String("log-format")))
			c.App.Metadata[configKey] = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server backed by PostgreSQL",
				Flags:  []cli.Flag{portFlag},
				Action: runServe,
			},
			{
				Name:   "demo",
				Usage:  "Start the web server on an in-memory store loaded from a seed file",
				Flags:  []cli.Flag{portFlag, seedFileFlag},
				Action: runDemo,
			},
			{
				Name:  "seed",
				Usage: "Load a task tree into an empty database",
				Flags: []cli.Flag{
					seedFileFlag,
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Replace existing tasks and history",
					},
				},
				Action: runSeed,
			},
			{
				Name:  "recompute",
				Usage: "Re-run the rollup for one task and its ancestors, or for every parent task",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "task-id",
						Usage: "Task to start from (all parent tasks when omitted)",
					},
				},
				Action: runRecompute,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "Apply all pending migrations",
						Action: withDatabase(func(c *cli.Context, db *database.DB) error {
							return database.RunMigrations(c.Context, db.Pool())
						}),
					},
					{
						Name:  "down",
						Usage: "Roll back the latest migration",
						Action: withDatabase(func(c *cli.Context, db *database.DB) error {
							return database.RollbackMigration(c.Context, db.Pool())
						}),
					},
					{
						Name:  "status",
						Usage: "Print the migration status",
						Action: withDatabase(func(c *cli.Context, db *database.DB) error {
							return database.MigrationStatus(c.Context, db.Pool())
						}),
					},
				},
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// loadedConfig returns the configuration prepared by the Before hook.
func loadedConfig(c *cli.Context) *config.Config {
	for _, ctx := range c.Lineage() {
		if ctx.App == nil {
			continue
		}
		if cfg, ok := ctx.App.Metadata[configKey].(*config.Config); ok {
			return cfg
		}
	}
	return config.Default()
}

// withDatabase opens the pool for the duration of fn.
func withDatabase(fn func(c *cli.Context, db *database.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := database.New(c.Context, loadedConfig(c).Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		return fn(c, db)
	}
}

// openService connects to the database, migrates it and builds the service.
func openService(c *cli.Context) (*service.TaskService, *repository.Store, *database.DB, error) {
	ctx := c.Context
	cfg := loadedConfig(c)

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repository.NewStore(db.Pool())
	return service.NewTaskService(store, cfg.ProjectInfo(), nil), store, db, nil
}

func runServe(c *cli.Context) error {
	svc, _, db, err := openService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return listen(c, handler.New(svc, db.Pool()))
}

func runDemo(c *cli.Context) error {
	ctx := c.Context

	tasks, err := loadSeed(c)
	if err != nil {
		return err
	}

	store := memstore.New()
	if err := seed.Apply(ctx, store, tasks); err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}

	svc := service.NewTaskService(store, loadedConfig(c).ProjectInfo(), nil)
	if _, err := svc.RecomputeAll(ctx); err != nil {
		return fmt.Errorf("failed to roll up seed: %w", err)
	}

	slog.Info("demo store ready", "tasks", store.Len())
	return listen(c, handler.New(svc, nil))
}

func runSeed(c *cli.Context) error {
	ctx := c.Context

	tasks, err := loadSeed(c)
	if err != nil {
		return err
	}

	svc, store, db, err := openService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := store.Tasks().Count(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		if !c.Bool("force") {
			slog.Info("database already holds tasks, skipping seed", "tasks", existing)
			return nil
		}
		if err := store.Tasks().DeleteAll(ctx); err != nil {
			return err
		}
		slog.Warn("removed existing tasks and history", "tasks", existing)
	}

	if err := seed.Apply(ctx, store, tasks); err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}

	parents, err := svc.RecomputeAll(ctx)
	if err != nil {
		return err
	}

	slog.Info("seed loaded", "tasks", len(tasks), "parents_rolled_up", parents)
	return nil
}

func runRecompute(c *cli.Context) error {
	svc, _, db, err := openService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if !c.IsSet("task-id") {
		_, err := svc.RecomputeAll(c.Context)
		return err
	}

	taskID := c.Int64("task-id")
	result, err := svc.Recompute(c.Context, taskID)
	if err != nil {
		return fmt.Errorf("recompute task %d: %w", taskID, err)
	}

	slog.Info("recompute finished",
		"task_id", result.Task.ID,
		"progress", result.Task.Progress,
		"status", result.Task.Status,
	)
	return nil
}

// loadSeed reads the --file seed, or the bundled sample when none is given.
func loadSeed(c *cli.Context) ([]*domain.Task, error) {
	today := time.Now()
	if path := c.String("file"); path != "" {
		return seed.LoadFile(path, today)
	}
	return seed.Parse(bytes.NewReader(seed.DefaultProject), today)
}

// listen serves the API until SIGINT or SIGTERM.
func listen(c *cli.Context, h *handler.Handler) error {
	port := c.String("port")
	if port == "" {
		port = loadedConfig(c).Port
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.Chain(mux, middleware.RequestID, middleware.AccessLog),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
