package hog

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	cfgpkg "github.com/bc-dunia/loadhog/internal/config"
	"github.com/bc-dunia/loadhog/internal/events"
)

// ExitReason describes why a generator terminated.
type ExitReason string

const (
	// ExitStopped means the generator observed a cooperative stop signal.
	ExitStopped ExitReason = "stopped"
	// ExitExpired means the expiry timer fired.
	ExitExpired ExitReason = "expired"
	// ExitFault means the generator recovered from an internal panic.
	ExitFault ExitReason = "fault"
)

// ExitEvent is the single lifecycle message a generator sends back when its
// goroutine finishes.
type ExitEvent struct {
	Reason         ExitReason
	Err            error
	Runtime        time.Duration
	AllocatedBytes int64
	BurnCycles     int64
}

// minute is the unit behind MaxMinutes. Overridable in tests so expiry can
// be exercised without waiting wall-clock minutes.
var minute = time.Minute

// workload is the per-repetition burn function. Overridable in tests to
// exercise the fault path.
var workload = burnOnce

// availableMemory reports the host's available memory. Overridable in tests.
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// Generator is an isolated unit of execution that allocates memory and
// burns CPU according to its Config. It runs in its own goroutine and
// communicates with the owning Controller only through the stop signal
// (inbound) and the done channel (outbound). Its buffers are private and
// released when the goroutine returns.
type Generator struct {
	cfg    Config
	logger *events.EventLogger

	stopCh   chan struct{}
	stopOnce sync.Once
	killed   atomic.Bool
	running  atomic.Bool

	done chan ExitEvent

	chunks         [][]byte
	allocatedBytes atomic.Int64
	burnCycles     atomic.Int64

	startedAt time.Time
}

// NewGenerator creates a generator seeded with cfg. It does not start any
// work; call Start. A nil logger falls back to the global event logger.
func NewGenerator(cfg Config, logger *events.EventLogger) *Generator {
	if logger == nil {
		logger = events.GetGlobalEventLogger()
	}
	return &Generator{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan ExitEvent, 1),
	}
}

// Start spawns the generator goroutine. It fails only when the host does
// not have enough available memory to cover the allocation target, leaving
// the generator inert.
func (g *Generator) Start() error {
	if g.cfg.MemoryMB > 0 {
		need := uint64(g.cfg.MemoryMB) * 1024 * 1024
		if avail, err := availableMemory(); err == nil && avail < need {
			return NewSpawnError(
				fmt.Sprintf("cannot allocate %d MB: host reports %d MB available", g.cfg.MemoryMB, avail/(1024*1024)),
				nil,
			)
		}
	}

	g.startedAt = time.Now()
	g.running.Store(true)
	go g.run()
	return nil
}

// Stop requests cooperative termination. Safe to call multiple times.
func (g *Generator) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}

// Kill escalates to forced termination: the kill flag is observed inside
// every allocation step and workload repetition, so exit latency is bounded
// by a single repetition even mid-burst. Killing an already-exited
// generator is a no-op.
func (g *Generator) Kill() {
	g.killed.Store(true)
	g.Stop()
}

// Done returns the channel carrying the generator's single exit event.
func (g *Generator) Done() <-chan ExitEvent {
	return g.done
}

// Running reports whether the generator goroutine is still live.
func (g *Generator) Running() bool {
	return g.running.Load()
}

// AllocatedBytes returns the bytes retained by the allocation phase so far.
func (g *Generator) AllocatedBytes() int64 {
	return g.allocatedBytes.Load()
}

// BurnCycles returns the number of completed CPU bursts.
func (g *Generator) BurnCycles() int64 {
	return g.burnCycles.Load()
}

// Config returns the configuration the generator was seeded with.
func (g *Generator) Config() Config {
	return g.cfg
}

func (g *Generator) run() {
	defer g.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("generator panic: %v", r)
			g.logger.LogGeneratorExit(string(ExitFault), g.runtimeMs(), g.allocatedBytes.Load(), g.burnCycles.Load(), err)
			g.done <- g.exitEvent(ExitFault, err)
		}
	}()

	// Hard upper bound on resource consumption. Fires regardless of any
	// signal the controller did or did not send.
	expiry := time.NewTimer(time.Duration(g.cfg.MaxMinutes) * minute)
	defer expiry.Stop()

	reason := g.allocate(expiry)
	if reason == "" {
		reason = g.burn(expiry)
	}

	g.logger.LogGeneratorExit(string(reason), g.runtimeMs(), g.allocatedBytes.Load(), g.burnCycles.Load(), nil)
	g.done <- g.exitEvent(reason, nil)
}

func (g *Generator) exitEvent(reason ExitReason, err error) ExitEvent {
	return ExitEvent{
		Reason:         reason,
		Err:            err,
		Runtime:        time.Since(g.startedAt),
		AllocatedBytes: g.allocatedBytes.Load(),
		BurnCycles:     g.burnCycles.Load(),
	}
}

// allocate retains fixed-size chunks, touching every byte, until the
// cumulative target is reached or a stop is observed. Returns the exit
// reason, or "" when the burn phase should follow.
func (g *Generator) allocate(expiry *time.Timer) ExitReason {
	target := int64(g.cfg.MemoryMB) * 1024 * 1024

	for g.allocatedBytes.Load() < target {
		select {
		case <-g.stopCh:
			return ExitStopped
		case <-expiry.C:
			return ExitExpired
		default:
		}
		if g.killed.Load() {
			return ExitStopped
		}

		size := int64(cfgpkg.AllocChunkBytes)
		if remaining := target - g.allocatedBytes.Load(); remaining < size {
			size = remaining
		}

		chunk := make([]byte, size)
		for i := range chunk {
			chunk[i] = byte(i)
		}
		g.chunks = append(g.chunks, chunk)
		g.allocatedBytes.Add(size)
	}

	g.logger.LogAllocationComplete(g.allocatedBytes.Load(), g.runtimeMs())
	return ""
}

// burn repeats wall-clock-bounded bursts of the mixed workload until
// stopped or expired. A burst itself is not preemptible; the stop signal is
// observed between bursts and the kill flag between repetitions.
func (g *Generator) burn(expiry *time.Timer) ExitReason {
	slice := time.Duration(g.cfg.CPUSliceMs) * time.Millisecond
	seed := uint64(time.Now().UnixNano())

	for {
		select {
		case <-g.stopCh:
			return ExitStopped
		case <-expiry.C:
			return ExitExpired
		default:
		}

		deadline := time.Now().Add(slice)
		for time.Now().Before(deadline) {
			for r := 0; r < g.cfg.Intensity; r++ {
				if g.killed.Load() {
					return ExitStopped
				}
				seed++
				workloadSink = workload(seed)
			}
		}
		g.burnCycles.Add(1)

		// Yield so the cancellation-observation point cannot be starved
		// on a saturated scheduler.
		runtime.Gosched()
	}
}

func (g *Generator) runtimeMs() int64 {
	return time.Since(g.startedAt).Milliseconds()
}
