package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/shelfmate/core/internal/infrastructure/config"
	"github.com/shelfmate/core/internal/infrastructure/database"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

// Open builds the snapshot storage selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.SnapshotStorage, error) {
	log = log.WithComponent("storage").WithFields("driver", cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage; the catalog will not survive a restart")
		return NewMemoryStorage(), nil

	case config.DriverFile:
		fs, err := NewFileStorage(afero.NewOsFs(), cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		log.Infow("File storage ready", "dir", cfg.Storage.Dir)
		return fs, nil

	case config.DriverSQLite:
		path := cfg.Storage.SQLitePath
		if path != ":memory:" && !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Storage.Dir, path)
		}
		if err := afero.NewOsFs().MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := database.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSQLiteSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Infow("SQLite storage ready", "path", path)
		return NewSQLStorage(db), nil

	case config.DriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db)
			if err != nil {
				db.Close()
				return nil, err
			}
			if err := migrator.Up(); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("Database migrations applied")
		}
		log.Infow("PostgreSQL storage ready", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return NewSQLStorage(db), nil

	case config.DriverRedis:
		rs, err := NewRedisStorage(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Infow("Redis storage ready", "addr", cfg.Redis.GetAddr())
		return rs, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
