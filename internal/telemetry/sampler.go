// Package telemetry samples host and process resource usage so that status
// reports and logs reflect what the load generator is actually costing the
// machine.
package telemetry

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/bc-dunia/loadhog/internal/events"
)

// HostUsage is a point-in-time view of host-level resources.
type HostUsage struct {
	CPUPercent   float64 `json:"cpu_percent"`
	MemTotal     uint64  `json:"mem_total"`
	MemUsed      uint64  `json:"mem_used"`
	MemAvailable uint64  `json:"mem_available"`
	SwapUsed     uint64  `json:"swap_used"`
	LoadAvg1     float64 `json:"load_avg_1"`
	LoadAvg5     float64 `json:"load_avg_5"`
	LoadAvg15    float64 `json:"load_avg_15"`
}

// ProcessUsage is a point-in-time view of this process.
type ProcessUsage struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemRSS     uint64  `json:"mem_rss"`
	MemVMS     uint64  `json:"mem_vms"`
	NumThreads int     `json:"num_threads"`
	NumFDs     int     `json:"num_fds"`
}

// Sample bundles one host and one process snapshot.
type Sample struct {
	Timestamp int64         `json:"timestamp"`
	Host      *HostUsage    `json:"host,omitempty"`
	Process   *ProcessUsage `json:"process,omitempty"`
}

// Collect takes a single best-effort sample. Probe failures leave the
// corresponding section nil rather than failing the whole sample.
func Collect() Sample {
	sample := Sample{
		Timestamp: time.Now().UnixMilli(),
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		sample.Host = &HostUsage{
			CPUPercent: cpuPercent[0],
		}

		if memInfo, err := mem.VirtualMemory(); err == nil && memInfo != nil {
			sample.Host.MemTotal = memInfo.Total
			sample.Host.MemUsed = memInfo.Used
			sample.Host.MemAvailable = memInfo.Available
		}

		if swapInfo, err := mem.SwapMemory(); err == nil && swapInfo != nil {
			sample.Host.SwapUsed = swapInfo.Used
		}

		// Load average (Unix systems)
		if loadAvg, err := load.Avg(); err == nil && loadAvg != nil {
			sample.Host.LoadAvg1 = loadAvg.Load1
			sample.Host.LoadAvg5 = loadAvg.Load5
			sample.Host.LoadAvg15 = loadAvg.Load15
		}
	}

	pid := os.Getpid()
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		cpuPct, _ := proc.CPUPercent()
		numThreads, _ := proc.NumThreads()

		sample.Process = &ProcessUsage{
			PID:        pid,
			CPUPercent: cpuPct,
			NumThreads: int(numThreads),
		}

		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			sample.Process.MemRSS = memInfo.RSS
			sample.Process.MemVMS = memInfo.VMS
		}

		// File descriptors (Unix only, ignore error on Windows)
		if numFDs, err := proc.NumFDs(); err == nil {
			sample.Process.NumFDs = int(numFDs)
		}
	}

	return sample
}

// ActivityProvider tells the sampler whether a generator is currently live.
type ActivityProvider interface {
	Active() bool
}

// Sampler periodically collects resource samples while a generator is
// active and logs them through the event logger.
type Sampler struct {
	interval time.Duration
	provider ActivityProvider
	logger   *events.EventLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
	closed  atomic.Bool

	mu   sync.RWMutex
	last Sample
}

// NewSampler creates a sampler that records every interval while the
// provider reports activity.
func NewSampler(interval time.Duration, provider ActivityProvider, logger *events.EventLogger) *Sampler {
	if logger == nil {
		logger = events.NoopEventLogger()
	}
	return &Sampler{
		interval: interval,
		provider: provider,
		logger:   logger,
	}
}

// Start launches the sampling loop. Idempotent.
func (s *Sampler) Start(ctx context.Context) {
	if s.started.Swap(true) {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop()
}

// Stop terminates the sampling loop and waits for it to finish.
func (s *Sampler) Stop() {
	if s.closed.Swap(true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Last returns the most recent sample, which may be zero before the first
// tick.
func (s *Sampler) Last() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Sampler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.provider != nil && !s.provider.Active() {
				continue
			}
			sample := Collect()

			s.mu.Lock()
			s.last = sample
			s.mu.Unlock()

			if sample.Host != nil && sample.Process != nil {
				s.logger.LogResourceSample(
					sample.Host.CPUPercent,
					sample.Host.MemUsed,
					sample.Process.MemRSS,
					sample.Process.CPUPercent,
				)
			}
		}
	}
}
