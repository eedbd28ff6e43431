// Package storage selects and opens the configured registration store.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"example.com/registration/internal/config"
	"example.com/registration/internal/registration"
	"example.com/registration/internal/storage/memory"
	"example.com/registration/internal/storage/mongo"
	"example.com/registration/internal/storage/postgres"
)

// Backend is a registration store that owns a connection to release on shutdown.
type Backend interface {
	registration.Store
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.StoreBackend. For postgres the
// schema is applied before returning.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (Backend, error) {
	now := func() time.Time { return time.Now().UTC() }

	switch cfg.StoreBackend {
	case config.BackendMongo:
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, now)
		if err != nil {
			return nil, err
		}
		log.Info("store: mongo connected", "database", cfg.MongoDatabase)
		return s, nil

	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		mig := filepath.Join(cfg.MigrationsDir, "0001_init.sql")
		if err := db.RunMigration(ctx, mig); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("store: postgres connected, schema applied", "migration", mig)
		return postgres.NewStore(db, now), nil

	case config.BackendMemory:
		log.Warn("store: using in-memory backend, registrations are not durable")
		return memory.New(now), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
