package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfmate/core/internal/adapters/repository"
	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/infrastructure/config"
	"github.com/shelfmate/core/internal/infrastructure/database"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/infrastructure/server"
	"github.com/shelfmate/core/internal/ports"
)

// Set through -ldflags at build time
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "development"
)

// catalog bundles what the offline commands need
type catalog struct {
	cfg     *config.Config
	storage ports.SnapshotStorage
	store   *services.Store
	query   *services.QueryService
}

func (c *catalog) Close() error {
	return c.storage.Close()
}

// openStorage loads configuration and opens the configured storage without
// reading the snapshot. Tests replace it.
var openStorage = func(ctx context.Context) (*config.Config, ports.SnapshotStorage, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command output goes to stdout, so logs move out of the way
	cfg.Logger.Output = "stderr"
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	storage, err := repository.Open(ctx, cfg, appLogger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return cfg, storage, appLogger, nil
}

// openCatalog opens storage and loads the snapshot into a store
func openCatalog(ctx context.Context) (*catalog, error) {
	cfg, storage, appLogger, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	store := services.NewStore(storage, cfg.Storage.Key, appLogger)
	if err := store.Load(ctx); err != nil {
		storage.Close()
		return nil, err
	}

	query, err := services.NewQueryService(cfg.Catalog.PageSize, 0)
	if err != nil {
		storage.Close()
		return nil, err
	}

	return &catalog{cfg: cfg, storage: storage, store: store, query: query}, nil
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Shelfmate API server",
		Long:  "Start the Shelfmate API server with the catalog, session and health routes",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the snapshot table migrations for the postgres storage driver (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd)
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Shelfmate version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shelfmate v%s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := repository.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to open storage", "error", err, "driver", cfg.Storage.Driver)
	}

	srv, err := server.New(ctx, cfg, storage, appLogger)
	if err != nil {
		storage.Close()
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting Shelfmate API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatalw("Server failed to start", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
	}
}

func openMigrator() (*database.Migrator, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		return nil, nil, fmt.Errorf("migrations apply to the %s storage driver, configured driver is %s", config.DriverPostgres, cfg.Storage.Driver)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return m, db, nil
}

func runMigration(cmd *cobra.Command, direction string) error {
	m, db, err := openMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		err = errors.New("unknown migration direction " + direction)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion(cmd *cobra.Command) error {
	m, db, err := openMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
	return nil
}
