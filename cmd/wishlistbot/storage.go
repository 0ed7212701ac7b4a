package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/config"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/repository/memory"
	"github.com/Kerhoff/WishlistBot/internal/repository/postgres"
	"github.com/Kerhoff/WishlistBot/internal/repository/sqlite"
)

// storage is the repository pair chosen by STORAGE_DRIVER
type storage struct {
	users    repository.UserRepository
	wishlist repository.WishlistRepository
	close    func() error
}

func openStorage(ctx context.Context, cfg *config.Config, l *logrus.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &storage{
			users:    postgres.NewUserRepository(db.DB),
			wishlist: postgres.NewWishlistRepository(db.DB),
			close:    db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := config.NewSQLite(cfg.SQLitePath, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &storage{
			users:    sqlite.NewUserRepository(db.DB),
			wishlist: sqlite.NewWishlistRepository(db.DB),
			close:    db.Close,
		}, nil

	case config.DriverMemory:
		l.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			users:    store,
			wishlist: store,
			close:    func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
