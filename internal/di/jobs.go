package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/clientdata"
	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/reliability"
	"github.com/aristath/coinvest/internal/scheduler"
)

// RegisterJobs registers background jobs with the scheduler.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	if cfg.Cache.RefreshSchedule != "" {
		job := scheduler.NewDealsRefreshJob(container.DealRepository, cfg.Cache.FetchTimeout*2, log)
		if err := container.Scheduler.AddJob(cfg.Cache.RefreshSchedule, job); err != nil {
			return nil, fmt.Errorf("failed to register deals refresh job: %w", err)
		}
		instances.DealsRefresh = job
	}

	if container.SnapshotPruner != nil && cfg.Snapshot.CleanupSchedule != "" {
		job := clientdata.NewCleanupJob(container.SnapshotPruner, container.EventManager, log)
		if err := container.Scheduler.AddJob(cfg.Snapshot.CleanupSchedule, job); err != nil {
			return nil, fmt.Errorf("failed to register snapshot cleanup job: %w", err)
		}
		instances.SnapshotCleanup = job
	}

	if container.SnapshotDB != nil && cfg.Snapshot.MaintenanceSchedule != "" {
		job := reliability.NewMaintenanceJob(container.SnapshotDB, log)
		if err := container.Scheduler.AddJob(cfg.Snapshot.MaintenanceSchedule, job); err != nil {
			return nil, fmt.Errorf("failed to register snapshot maintenance job: %w", err)
		}
		instances.SnapshotMaintenance = job
	}

	log.Info().
		Bool("deals_refresh", instances.DealsRefresh != nil).
		Bool("snapshot_cleanup", instances.SnapshotCleanup != nil).
		Bool("snapshot_maintenance", instances.SnapshotMaintenance != nil).
		Msg("Jobs registered")

	return instances, nil
}
