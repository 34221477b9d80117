package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/clientdata"
	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/database"
)

// InitializeStorage opens the snapshot backend selected by the configuration
func InitializeStorage(container *Container, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.Snapshot.Backend {
	case config.BackendSQLite:
		db, err := database.New(database.Config{
			Path:    cfg.SnapshotDBPath(),
			Profile: database.ProfileCache, // snapshots can always be re-fetched
			Name:    "snapshots",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize snapshot database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate snapshot database: %w", err)
		}

		repo := clientdata.NewRepository(db.Conn())
		container.SnapshotDB = db
		container.SnapshotStore = repo
		container.SnapshotPruner = repo
		log.Info().Str("path", db.Path()).Msg("Snapshot database ready")

	case config.BackendRedis:
		store, err := clientdata.NewRedisStore(cfg.Snapshot.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis snapshot store: %w", err)
		}

		// An unreachable redis only costs the snapshot fallback
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis not reachable at startup, snapshots may fail")
		}

		container.RedisStore = store
		container.SnapshotStore = store
		container.SnapshotPruner = store
		log.Info().Msg("Redis snapshot store ready")

	case config.BackendNone:
		log.Info().Msg("Snapshot persistence disabled")

	default:
		return fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	return nil
}
