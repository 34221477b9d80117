package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/coinvest/internal/events"
)

// SheetSource returns the data rows of the deal sheet, each keyed by column header
type SheetSource interface {
	FetchRows(ctx context.Context) ([]map[string]string, error)
}

// DefaultSnapshotKey is the key the current batch is persisted under
const DefaultSnapshotKey = "deals"

// SnapshotStore persists the last good batch so it survives restarts.
// Get decodes into dest and reports whether an entry existed, expired or not.
// Expired entries stay readable until the store's cleanup removes them.
type SnapshotStore interface {
	Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
}

// FetchRecorder receives fetch outcomes for metrics
type FetchRecorder interface {
	ObserveFetch(result string, duration time.Duration)
	ObserveBatch(deals, skipped, warnings int)
	ObserveCacheHit()
}

// Fetch results reported to the FetchRecorder
const (
	ResultSuccess  = "success"
	ResultStale    = "stale"
	ResultSnapshot = "snapshot"
	ResultFailure  = "failure"
)

// Fetch triggers, carried in events and logs
const (
	TriggerTTL      = "ttl"
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// RepositoryConfig holds the collaborators of a Repository.
// Snapshots, Events and Recorder are optional.
type RepositoryConfig struct {
	Source       SheetSource
	Cache        *Cache
	Snapshots    SnapshotStore
	SnapshotKey  string
	SnapshotTTL  time.Duration
	FetchTimeout time.Duration
	Events       *events.Manager
	Recorder     FetchRecorder
	Log          zerolog.Logger
}

// Repository fetches deals from the sheet source and memoises them.
// Failed fetches degrade to the cached batch, then to the persisted snapshot,
// and only then surface a SourceUnavailableError.
type Repository struct {
	source       SheetSource
	cache        *Cache
	snapshots    SnapshotStore
	snapshotKey  string
	snapshotTTL  time.Duration
	fetchTimeout time.Duration
	eventManager *events.Manager
	recorder     FetchRecorder
	group        singleflight.Group
	now          func() time.Time
	log          zerolog.Logger
}

// NewRepository creates a deal repository
func NewRepository(cfg RepositoryConfig) *Repository {
	if cfg.Cache == nil {
		cfg.Cache = NewCache(5 * time.Minute)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = DefaultSnapshotKey
	}
	return &Repository{
		source:       cfg.Source,
		cache:        cfg.Cache,
		snapshots:    cfg.Snapshots,
		snapshotKey:  cfg.SnapshotKey,
		snapshotTTL:  cfg.SnapshotTTL,
		fetchTimeout: cfg.FetchTimeout,
		eventManager: cfg.Events,
		recorder:     cfg.Recorder,
		now:          time.Now,
		log:          cfg.Log.With().Str("repository", "deals").Logger(),
	}
}

// FetchDeals returns the cached batch while it is fresh, otherwise fetches a new one.
// Concurrent callers that miss the cache share a single source call.
func (r *Repository) FetchDeals(ctx context.Context) (*Batch, error) {
	if b, fresh := r.cache.Get(); b != nil && fresh {
		if r.recorder != nil {
			r.recorder.ObserveCacheHit()
		}
		return b, nil
	}

	ch := r.group.DoChan("fetch", func() (interface{}, error) {
		return r.load(context.WithoutCancel(ctx), TriggerTTL)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Batch), nil
	case <-ctx.Done():
		// The shared load keeps running and reports its own outcome
		cause := ctx.Err()
		if last, _ := r.lastKnown(context.WithoutCancel(ctx)); last != nil {
			return last.staleCopy(cause), nil
		}
		return nil, &SourceUnavailableError{Err: cause}
	}
}

// Refresh bypasses the time-to-live and always calls the source
func (r *Repository) Refresh(ctx context.Context) (*Batch, error) {
	return r.RefreshWithTrigger(ctx, TriggerManual)
}

// RefreshWithTrigger is Refresh with an explicit trigger label for events and logs
func (r *Repository) RefreshWithTrigger(ctx context.Context, trigger string) (*Batch, error) {
	return r.load(ctx, trigger)
}

// Invalidate expires the cached batch; the next FetchDeals call goes to the source
func (r *Repository) Invalidate() {
	r.cache.Invalidate()
	r.log.Debug().Msg("Deal cache invalidated")
}

// Cached returns the current batch without contacting the source
func (r *Repository) Cached() (*Batch, bool) {
	return r.cache.Get()
}

// CacheExpiresAt returns when the cached batch stops being fresh
func (r *Repository) CacheExpiresAt() time.Time {
	return r.cache.ExpiresAt()
}

// load performs one source call and degrades to fallbacks on failure
func (r *Repository) load(ctx context.Context, trigger string) (*Batch, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := time.Now()
	batch, err := r.fetch(fetchCtx)
	if err != nil {
		r.log.Warn().Err(err).Str("trigger", trigger).Dur("duration", time.Since(start)).Msg("Failed to fetch deals from sheet")
		return r.fallback(ctx, err, trigger)
	}

	r.cache.Store(batch)
	r.observe(ResultSuccess, time.Since(start))
	if r.recorder != nil {
		r.recorder.ObserveBatch(len(batch.Deals), batch.SkippedRows(), len(batch.Warnings))
	}

	for _, w := range batch.Warnings {
		r.log.Warn().
			Int("row", w.Row).
			Str("deal_id", w.DealID).
			Str("field", w.Field).
			Str("kind", string(w.Kind)).
			Bool("skipped", w.Skipped).
			Msg(w.Message)
	}

	r.persist(ctx, batch)

	r.log.Info().
		Str("batch_id", batch.ID).
		Int("deals", len(batch.Deals)).
		Int("skipped", batch.SkippedRows()).
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Fetched deals")

	if r.eventManager != nil {
		r.eventManager.EmitTyped("deals", &events.DealsRefreshedData{
			BatchID:   batch.ID,
			Deals:     len(batch.Deals),
			Skipped:   batch.SkippedRows(),
			Warnings:  len(batch.Warnings),
			FetchedAt: batch.FetchedAt,
			Trigger:   trigger,
		})
	}

	return batch, nil
}

func (r *Repository) fetch(ctx context.Context) (*Batch, error) {
	if r.source == nil {
		return nil, errors.New("no sheet source configured")
	}

	rows, err := r.source.FetchRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	deals, warnings, err := MapRows(rows)
	if err != nil {
		return nil, err
	}

	return &Batch{
		ID:        uuid.NewString(),
		Deals:     deals,
		FetchedAt: r.now(),
		Warnings:  warnings,
	}, nil
}

// fallback serves stale data after a failed fetch: cached batch first, then the
// persisted snapshot. Without either, a SourceUnavailableError is returned.
func (r *Repository) fallback(ctx context.Context, cause error, trigger string) (*Batch, error) {
	last, origin := r.lastKnown(ctx)
	switch origin {
	case ResultStale:
		r.log.Warn().
			Err(cause).
			Str("batch_id", last.ID).
			Time("fetched_at", last.FetchedAt).
			Msg("Sheet unavailable, serving stale cached deals")
	case ResultSnapshot:
		r.log.Warn().
			Err(cause).
			Str("batch_id", last.ID).
			Time("fetched_at", last.FetchedAt).
			Msg("Sheet unavailable, serving persisted snapshot")
		r.cache.storeExpired(last)
	default:
		r.observe(ResultFailure, 0)
		r.emitFailure(cause, false, trigger)
		return nil, &SourceUnavailableError{Err: cause}
	}

	r.observe(origin, 0)
	r.emitFailure(cause, true, trigger)
	return last.staleCopy(cause), nil
}

// lastKnown returns the cached batch, or the persisted snapshot when nothing is
// cached, along with the fetch result naming where it came from.
// It has no side effects.
func (r *Repository) lastKnown(ctx context.Context) (*Batch, string) {
	if cached, _ := r.cache.Get(); cached != nil {
		return cached, ResultStale
	}
	if snap := r.loadSnapshot(ctx); snap != nil {
		return snap, ResultSnapshot
	}
	return nil, ""
}

func (r *Repository) persist(ctx context.Context, b *Batch) {
	if r.snapshots == nil {
		return
	}
	if err := r.snapshots.Store(ctx, r.snapshotKey, b, r.snapshotTTL); err != nil {
		r.log.Warn().Err(err).Str("key", r.snapshotKey).Msg("Failed to persist deal snapshot")
		if r.eventManager != nil {
			r.eventManager.EmitError("deals", err, map[string]interface{}{
				"operation": "persist_snapshot",
				"key":       r.snapshotKey,
			})
		}
	}
}

func (r *Repository) loadSnapshot(ctx context.Context) *Batch {
	if r.snapshots == nil {
		return nil
	}
	var b Batch
	found, err := r.snapshots.Get(ctx, r.snapshotKey, &b)
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.snapshotKey).Msg("Failed to load deal snapshot")
		return nil
	}
	if !found {
		return nil
	}
	return &b
}

func (r *Repository) observe(result string, d time.Duration) {
	if r.recorder != nil {
		r.recorder.ObserveFetch(result, d)
	}
}

func (r *Repository) emitFailure(cause error, servedStale bool, trigger string) {
	if r.eventManager == nil {
		return
	}
	r.eventManager.EmitTyped("deals", &events.DealsRefreshFailedData{
		Error:       cause.Error(),
		ServedStale: servedStale,
		Trigger:     trigger,
	})
}
