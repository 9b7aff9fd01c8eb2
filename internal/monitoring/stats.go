package monitoring

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a point-in-time view of this process.
type ProcessStats struct {
	CPUPercent float64   `json:"cpuPercent"`
	MemoryRSS  uint64    `json:"memoryRss"`
	MemPercent float32   `json:"memoryPercent"`
	Goroutines int       `json:"goroutines"`
	SampledAt  time.Time `json:"sampledAt"`
}

// StatUpdater periodically samples the process and keeps the latest snapshot.
type StatUpdater struct {
	proc     *process.Process
	interval time.Duration

	mu     sync.RWMutex
	latest ProcessStats
}

// NewStatUpdater creates a StatUpdater for the running process.
func NewStatUpdater(interval time.Duration) (*StatUpdater, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &StatUpdater{proc: proc, interval: interval}, nil
}

// Run samples once immediately and then every interval until ctx is cancelled.
func (su *StatUpdater) Run(ctx context.Context) error {
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	su.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			su.sample(ctx)
		}
	}
}

func (su *StatUpdater) sample(ctx context.Context) {
	stats := ProcessStats{
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now().UTC(),
	}

	cpu, err := su.proc.CPUPercentWithContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read CPU usage")
	}
	stats.CPUPercent = cpu

	if mem, err := su.proc.MemoryInfoWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read memory usage")
	} else {
		stats.MemoryRSS = mem.RSS
	}
	if pct, err := su.proc.MemoryPercentWithContext(ctx); err == nil {
		stats.MemPercent = pct
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()
}

// Snapshot returns the most recent sample. Goroutines is always current.
func (su *StatUpdater) Snapshot() ProcessStats {
	su.mu.RLock()
	s := su.latest
	su.mu.RUnlock()
	s.Goroutines = runtime.NumGoroutine()
	return s
}
