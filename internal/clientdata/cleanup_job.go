package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/events"
)

// ExpiredDeleter is implemented by every snapshot store
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Pruner removes expired snapshots or a single snapshot by key
type Pruner interface {
	ExpiredDeleter
	Delete(ctx context.Context, key string) error
}

// CleanupJob removes expired snapshots.
// It should be scheduled to run daily.
type CleanupJob struct {
	store        ExpiredDeleter
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewCleanupJob creates a new snapshot cleanup job. eventManager may be nil.
func NewCleanupJob(store ExpiredDeleter, eventManager *events.Manager, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		store:        store,
		eventManager: eventManager,
		log:          log.With().Str("job", "snapshot_cleanup").Logger(),
	}
}

// Run executes the cleanup job
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired snapshots")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Snapshot cleanup completed")
		if j.eventManager != nil {
			j.eventManager.EmitTyped("clientdata", &events.SnapshotsCleanedData{Deleted: deleted})
		}
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "snapshot_cleanup"
}
