package server

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/coinvest/internal/database"
	"github.com/aristath/coinvest/internal/scheduler"
)

// cacheStatus describes the in-memory deal batch
type cacheStatus struct {
	Fresh     bool   `json:"fresh"`
	BatchID   string `json:"batch_id,omitempty"`
	FetchedAt string `json:"fetched_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Deals     int    `json:"deals"`
	Warnings  int    `json:"warnings"`
	Stale     bool   `json:"stale"`
	LastError string `json:"last_error,omitempty"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string              `json:"status"`
	Version       string              `json:"version"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	CPUPercent    float64             `json:"cpu_percent"`
	MemoryPercent float64             `json:"memory_percent"`
	Cache         cacheStatus         `json:"cache"`
	Jobs          []scheduler.JobInfo `json:"jobs"`
	SnapshotDB    *database.Stats     `json:"snapshot_db,omitempty"`
	Timestamp     string              `json:"timestamp"`
}

// handleSystemStatus reports process health, cache state and scheduled jobs
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := s.getSystemStats(r.Context())

	resp := SystemStatusResponse{
		Status:        "healthy",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Cache:         s.cacheStatus(),
		Jobs:          []scheduler.JobInfo{},
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	if s.scheduler != nil {
		resp.Jobs = s.scheduler.Jobs()
	}

	if s.snapshotDB != nil {
		stats, err := s.snapshotDB.GetStats()
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to read snapshot database stats")
		} else {
			resp.SnapshotDB = stats
		}
	}

	if resp.Cache.Stale {
		resp.Status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) cacheStatus() cacheStatus {
	batch, fresh := s.deals.Cached()
	status := cacheStatus{Fresh: fresh}
	if batch == nil {
		return status
	}

	status.BatchID = batch.ID
	status.FetchedAt = batch.FetchedAt.Format(time.RFC3339)
	status.Deals = len(batch.Deals)
	status.Warnings = len(batch.Warnings)
	status.Stale = batch.Stale
	status.LastError = batch.LastError
	if exp := s.deals.CacheExpiresAt(); !exp.IsZero() {
		status.ExpiresAt = exp.Format(time.RFC3339)
	}
	return status
}

// getSystemStats samples CPU over 100ms and reads memory usage
func (s *Server) getSystemStats(ctx context.Context) (float64, float64) {
	cpuPercent, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// handleSource describes the sheet deals are read from
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeJSON(w, http.StatusNotImplemented, map[string]string{
			"error": "Source description not available",
		})
		return
	}

	info, err := s.source.Info(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to describe deal source")
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "Failed to read source metadata",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": info,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}
