package reliability

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"

	testingpkg "github.com/aristath/coinvest/internal/testing"
)

type fakeDB struct {
	checkErr      error
	checkpointErr error
	checkpoints   []string
	path          string
}

func (f *fakeDB) QuickCheck(ctx context.Context) error { return f.checkErr }

func (f *fakeDB) WALCheckpoint(mode string) error {
	f.checkpoints = append(f.checkpoints, mode)
	return f.checkpointErr
}

func (f *fakeDB) Path() string { return f.path }
func (f *fakeDB) Name() string { return "snapshots" }

func newTestJob(db MaintainedDB, free uint64, usageErr error) *MaintenanceJob {
	job := NewMaintenanceJob(db, zerolog.Nop())
	job.usage = func(path string) (*disk.UsageStat, error) {
		if usageErr != nil {
			return nil, usageErr
		}
		return &disk.UsageStat{Path: path, Free: free}, nil
	}
	return job
}

func TestMaintenanceJob_Run(t *testing.T) {
	tests := []struct {
		name        string
		db          *fakeDB
		free        uint64
		usageErr    error
		wantErr     bool
		checkpoints int
	}{
		{name: "healthy", db: &fakeDB{path: "/data/snapshots.db"}, free: 1 << 30, checkpoints: 1},
		{name: "integrity failure", db: &fakeDB{path: "/data/snapshots.db", checkErr: errors.New("corrupt")}, free: 1 << 30, wantErr: true},
		{name: "checkpoint failure is not fatal", db: &fakeDB{path: "/data/snapshots.db", checkpointErr: errors.New("busy")}, free: 1 << 30, checkpoints: 1},
		{name: "low disk", db: &fakeDB{path: "/data/snapshots.db"}, free: 1024, wantErr: true, checkpoints: 1},
		{name: "usage unavailable", db: &fakeDB{path: "/data/snapshots.db"}, usageErr: errors.New("unsupported"), checkpoints: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestJob(tt.db, tt.free, tt.usageErr)
			err := job.Run()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, tt.db.checkpoints, tt.checkpoints)
		})
	}
}

func TestMaintenanceJob_RealDatabase(t *testing.T) {
	db := testingpkg.NewTestDB(t, "snapshots")

	job := newTestJob(db, 1<<30, nil)
	assert.Equal(t, "snapshot_maintenance", job.Name())
	assert.NoError(t, job.Run())
}
