// Package di provides dependency injection type definitions.
package di

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/clientdata"
	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/database"
	"github.com/aristath/coinvest/internal/events"
	"github.com/aristath/coinvest/internal/modules/deals"
	"github.com/aristath/coinvest/internal/observability"
	"github.com/aristath/coinvest/internal/scheduler"
)

// DealSource is a sheet source that can also describe itself
type DealSource interface {
	FetchRows(ctx context.Context) ([]map[string]string, error)
	Info(ctx context.Context) (deals.SourceInfo, error)
}

// Container holds all dependencies for the application.
// It is created by Wire and released with Close.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// Snapshot persistence. SnapshotDB is set for the sqlite backend,
	// RedisStore for redis; both are nil when snapshots are disabled.
	SnapshotDB     *database.DB
	RedisStore     *clientdata.RedisStore
	SnapshotStore  deals.SnapshotStore
	SnapshotPruner clientdata.Pruner

	Source DealSource

	EventBus     *events.Bus
	EventManager *events.Manager
	Metrics      *observability.Metrics // nil when metrics are disabled

	DealCache      *deals.Cache
	DealRepository *deals.Repository
	Presenter      *deals.Presenter

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering.
// A job is nil when its schedule is disabled.
type JobInstances struct {
	DealsRefresh        scheduler.Job
	SnapshotCleanup     scheduler.Job
	SnapshotMaintenance scheduler.Job
}

// Close releases storage connections
func (c *Container) Close() {
	if c.SnapshotDB != nil {
		if err := c.SnapshotDB.Close(); err != nil {
			c.Log.Warn().Err(err).Msg("Failed to close snapshot database")
		}
	}
	if c.RedisStore != nil {
		if err := c.RedisStore.Close(); err != nil {
			c.Log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}
