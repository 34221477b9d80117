package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/clients/csvsheet"
	"github.com/aristath/coinvest/internal/clients/sheets"
	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/events"
	"github.com/aristath/coinvest/internal/modules/deals"
	"github.com/aristath/coinvest/internal/observability"
	"github.com/aristath/coinvest/internal/scheduler"
)

// InitializeServices creates the sheet source, the deal pipeline and the
// scheduler. Storage must be initialized first.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	source, err := newSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	container.Source = source

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	var recorder deals.FetchRecorder
	if cfg.MetricsEnabled {
		container.Metrics = observability.New()
		recorder = container.Metrics
	}

	container.DealCache = deals.NewCache(cfg.Cache.TTL)
	container.DealRepository = deals.NewRepository(deals.RepositoryConfig{
		Source:       source,
		Cache:        container.DealCache,
		Snapshots:    container.SnapshotStore,
		SnapshotTTL:  cfg.Snapshot.TTL,
		FetchTimeout: cfg.Cache.FetchTimeout,
		Events:       container.EventManager,
		Recorder:     recorder,
		Log:          log,
	})

	container.Presenter = deals.NewPresenter(cfg.Display.Locale, cfg.Display.CurrencySymbol)
	container.Scheduler = scheduler.New(log)

	log.Info().
		Str("source", cfg.Sheet.Source).
		Dur("cache_ttl", cfg.Cache.TTL).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Services initialized")

	return nil
}

func newSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (DealSource, error) {
	switch cfg.Sheet.Source {
	case config.SourceGoogle:
		client, err := sheets.NewClient(ctx, sheets.Config{
			URLOrKey:        cfg.Sheet.URLOrKey,
			Worksheet:       cfg.Sheet.Worksheet,
			CredentialsJSON: cfg.Sheet.CredentialsJSON,
			CredentialsFile: cfg.Sheet.CredentialsFile,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Sheets client: %w", err)
		}
		return client, nil

	case config.SourceCSV:
		return csvsheet.NewClient(cfg.Sheet.CSVLocation, log), nil

	default:
		return nil, fmt.Errorf("unknown sheet source %q", cfg.Sheet.Source)
	}
}
