package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/modules/deals"
)

const testCSV = `id,title,industry,status,target_amount,raised_amount
1,Alpha AI,Tech,Open,1000000,250000
2,Beta Farm,Agri,Closed,500000,500000
`

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "deals.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0644))

	return &config.Config{
		DataDir: dir,
		Sheet: config.SheetConfig{
			Source:      config.SourceCSV,
			CSVLocation: csvPath,
		},
		Cache: config.CacheConfig{
			TTL:             time.Minute,
			FetchTimeout:    5 * time.Second,
			RefreshSchedule: "@every 5m",
		},
		Snapshot: config.SnapshotConfig{
			Backend:             backend,
			RedisURL:            "redis://localhost:6379/0",
			TTL:                 time.Hour,
			CleanupSchedule:     "@daily",
			MaintenanceSchedule: "0 30 3 * * *",
		},
		Display: config.DisplayConfig{
			Locale:         "en-US",
			CurrencySymbol: "$",
		},
		MetricsEnabled: true,
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.SnapshotDB)
	assert.NotNil(t, container.SnapshotStore)
	assert.NotNil(t, container.SnapshotPruner)
	assert.Nil(t, container.RedisStore)
	assert.NotNil(t, container.Source)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.Metrics)
	assert.NotNil(t, container.DealRepository)
	assert.NotNil(t, container.Presenter)
	assert.NotNil(t, container.Scheduler)

	require.NotNil(t, jobs.DealsRefresh)
	require.NotNil(t, jobs.SnapshotCleanup)
	require.NotNil(t, jobs.SnapshotMaintenance)
	assert.Len(t, container.Scheduler.Jobs(), 3)
	assert.NoError(t, jobs.SnapshotMaintenance.Run())

	batch, err := container.DealRepository.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Deals, 2)

	// The batch is persisted as a snapshot
	var snapshot struct {
		ID string `json:"id"`
	}
	found, err := container.SnapshotStore.Get(context.Background(), "deals", &snapshot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, batch.ID, snapshot.ID)

	require.NoError(t, container.SnapshotPruner.Delete(context.Background(), deals.DefaultSnapshotKey))
	found, err = container.SnapshotStore.Get(context.Background(), deals.DefaultSnapshotKey, &snapshot)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWire_NoSnapshots(t *testing.T) {
	cfg := testConfig(t, config.BackendNone)
	cfg.Cache.RefreshSchedule = ""
	cfg.MetricsEnabled = false

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.Nil(t, container.SnapshotDB)
	assert.Nil(t, container.SnapshotStore)
	assert.Nil(t, container.Metrics)
	assert.Nil(t, jobs.DealsRefresh)
	assert.Nil(t, jobs.SnapshotCleanup)
	assert.Nil(t, jobs.SnapshotMaintenance)
	assert.Empty(t, container.Scheduler.Jobs())
}

func TestWire_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"invalid redis url", func(cfg *config.Config) {
			cfg.Snapshot.Backend = config.BackendRedis
			cfg.Snapshot.RedisURL = "http://not-redis"
		}},
		{"unknown backend", func(cfg *config.Config) { cfg.Snapshot.Backend = "s3" }},
		{"unknown source", func(cfg *config.Config) { cfg.Sheet.Source = "excel" }},
		{"bad sheet url", func(cfg *config.Config) {
			cfg.Sheet.Source = config.SourceGoogle
			cfg.Sheet.URLOrKey = "https://example.com/not-a-sheet"
		}},
		{"bad refresh schedule", func(cfg *config.Config) { cfg.Cache.RefreshSchedule = "whenever" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, config.BackendNone)
			tt.mutate(cfg)

			container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
			assert.Error(t, err)
			assert.Nil(t, container)
			assert.Nil(t, jobs)
		})
	}
}
