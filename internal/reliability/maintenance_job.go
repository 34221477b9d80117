// Package reliability keeps the snapshot database healthy.
package reliability

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// defaultMinFreeBytes is the free space below which maintenance reports failure
const defaultMinFreeBytes = 100 * 1024 * 1024

// MaintainedDB is the part of database.DB the maintenance job uses
type MaintainedDB interface {
	QuickCheck(ctx context.Context) error
	WALCheckpoint(mode string) error
	Path() string
	Name() string
}

// MaintenanceJob checks integrity, truncates the WAL and watches free disk
// space of the snapshot database
type MaintenanceJob struct {
	db           MaintainedDB
	minFreeBytes uint64
	timeout      time.Duration
	usage        func(path string) (*disk.UsageStat, error)
	log          zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db MaintainedDB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:           db,
		minFreeBytes: defaultMinFreeBytes,
		timeout:      time.Minute,
		usage:        disk.Usage,
		log:          log.With().Str("job", "snapshot_maintenance").Logger(),
	}
}

// Run executes the maintenance steps. A failed integrity check or a nearly
// full disk is an error; a failed checkpoint is only logged.
func (j *MaintenanceJob) Run() error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Integrity check failed")
		return err
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Snapshot maintenance completed")
	return nil
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "snapshot_maintenance"
}

func (j *MaintenanceJob) checkDiskSpace() error {
	dir := filepath.Dir(j.db.Path())
	stat, err := j.usage(dir)
	if err != nil {
		// Not every filesystem reports usage
		j.log.Warn().Err(err).Str("dir", dir).Msg("Failed to read disk usage")
		return nil
	}

	j.log.Debug().
		Uint64("free_bytes", stat.Free).
		Float64("used_percent", stat.UsedPercent).
		Msg("Disk space check")

	if stat.Free < j.minFreeBytes {
		j.log.Error().Uint64("free_bytes", stat.Free).Msg("Low disk space for snapshot database")
		return fmt.Errorf("only %d bytes free in %s", stat.Free, dir)
	}
	return nil
}
