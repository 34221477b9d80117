package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/modules/deals"
)

// DealRefresher is the part of the deal repository the refresh job needs
type DealRefresher interface {
	RefreshWithTrigger(ctx context.Context, trigger string) (*deals.Batch, error)
}

// DealsRefreshJob re-reads the deal sheet off the request path so page loads
// find a warm cache
type DealsRefreshJob struct {
	repo    DealRefresher
	timeout time.Duration
	log     zerolog.Logger
}

// NewDealsRefreshJob creates a new refresh job
func NewDealsRefreshJob(repo DealRefresher, timeout time.Duration, log zerolog.Logger) *DealsRefreshJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &DealsRefreshJob{
		repo:    repo,
		timeout: timeout,
		log:     log.With().Str("job", "deals_refresh").Logger(),
	}
}

// Name returns the job name
func (j *DealsRefreshJob) Name() string {
	return "deals_refresh"
}

// Run refreshes the deal batch. Serving stale data is reported but is not a job failure.
func (j *DealsRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	batch, err := j.repo.RefreshWithTrigger(ctx, deals.TriggerSchedule)
	if err != nil {
		return err
	}

	if batch.Stale {
		j.log.Warn().Str("last_error", batch.LastError).Msg("Scheduled refresh failed, stale deals kept")
		return nil
	}

	j.log.Debug().Str("batch_id", batch.ID).Int("deals", len(batch.Deals)).Msg("Scheduled refresh completed")
	return nil
}
