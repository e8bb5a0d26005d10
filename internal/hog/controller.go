package hog

import (
	"sync"
	"time"

	cfgpkg "github.com/bc-dunia/loadhog/internal/config"
	"github.com/bc-dunia/loadhog/internal/events"
)

// Status is the externally visible state of the controller.
type Status string

const (
	StatusStarted    Status = "started"
	StatusStopped    Status = "stopped"
	StatusRunning    Status = "running"
	StatusNotRunning Status = "not_running"
)

// StartResult is returned by Start.
type StartResult struct {
	Status    Status    `json:"status"`
	Config    Config    `json:"config"`
	StartedAt time.Time `json:"started_at"`
	Message   string    `json:"message"`
}

// StopResult is returned by Stop.
type StopResult struct {
	Status         Status  `json:"status"`
	Config         *Config `json:"config,omitempty"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
	Message        string  `json:"message"`
}

// StatusResult is returned by Status.
type StatusResult struct {
	Status         Status     `json:"status"`
	Config         *Config    `json:"config,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	RuntimeSeconds float64    `json:"runtime_seconds"`
}

// Controller owns at most one live Generator. The generator handle, its
// config, and the start timestamp are set and cleared together; a non-nil
// handle always implies the other two. State is never shared with the
// generator itself — they communicate only via the stop signal and the
// done channel.
type Controller struct {
	mu        sync.Mutex
	gen       *Generator
	config    *Config
	startedAt time.Time

	gracePeriod time.Duration
	logger      *events.EventLogger
	onExit      func(ExitEvent)
}

// NewController creates an idle controller. A nil logger falls back to the
// global event logger.
func NewController(logger *events.EventLogger) *Controller {
	if logger == nil {
		logger = events.GetGlobalEventLogger()
	}
	return &Controller{
		gracePeriod: cfgpkg.StopGracePeriod,
		logger:      logger,
	}
}

// SetGracePeriod overrides the cooperative-stop grace period. Must be
// called before any Start.
func (c *Controller) SetGracePeriod(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gracePeriod = d
}

// SetExitHandler installs a hook invoked after every generator exit has
// been reconciled. Used to export metrics. Must be called before any Start.
func (c *Controller) SetExitHandler(fn func(ExitEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExit = fn
}

// Start parses raw parameters, replaces any active generator (a second
// start always wins), and spawns a new one. On spawn failure the state is
// left cleared and the error is returned to the caller.
func (c *Controller) Start(raw map[string]interface{}) (*StartResult, error) {
	cfg := ParseParams(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != nil {
		c.logger.LogGeneratorReplaced(time.Since(c.startedAt).Milliseconds())
		c.releaseLocked()
	}

	gen := NewGenerator(cfg, c.logger)
	if err := gen.Start(); err != nil {
		c.logger.LogSpawnFailed(err)
		return nil, err
	}

	cfgCopy := cfg
	c.gen = gen
	c.config = &cfgCopy
	c.startedAt = time.Now()
	go c.watch(gen)

	c.logger.LogGeneratorStarted(cfg.MemoryMB, cfg.CPUSliceMs, cfg.MaxMinutes, cfg.Intensity)

	return &StartResult{
		Status:    StatusStarted,
		Config:    cfg,
		StartedAt: c.startedAt,
		Message:   "load generator started",
	}, nil
}

// Stop signals the active generator to terminate and clears state
// optimistically, before the goroutine confirms its exit. Idempotent:
// stopping an idle controller is a no-op.
func (c *Controller) Stop() *StopResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen == nil {
		return &StopResult{
			Status:  StatusNotRunning,
			Message: "no load generator is running",
		}
	}

	cfg := *c.config
	elapsed := time.Since(c.startedAt)
	c.logger.LogStopRequested(elapsed.Milliseconds())
	c.releaseLocked()

	return &StopResult{
		Status:         StatusStopped,
		Config:         &cfg,
		RuntimeSeconds: elapsed.Seconds(),
		Message:        "load generator stopped",
	}
}

// Status reports the controller's view of the generator. It may briefly
// report running after a timer-driven self-exit, until the watcher observes
// the exit event.
func (c *Controller) Status() *StatusResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen == nil {
		return &StatusResult{Status: StatusNotRunning}
	}

	cfg := *c.config
	started := c.startedAt
	return &StatusResult{
		Status:         StatusRunning,
		Config:         &cfg,
		StartedAt:      &started,
		RuntimeSeconds: time.Since(c.startedAt).Seconds(),
	}
}

// Active reports whether a generator is currently owned.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != nil
}

// AllocatedBytes returns the active generator's retained allocation, or 0.
func (c *Controller) AllocatedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == nil {
		return 0
	}
	return c.gen.AllocatedBytes()
}

// Shutdown stops any active generator. Called on process teardown.
func (c *Controller) Shutdown() {
	c.Stop()
}

// releaseLocked sends the stop signal, arms the grace-period escalation,
// and clears all three state fields together. Callers hold c.mu.
func (c *Controller) releaseLocked() {
	gen := c.gen
	logger := c.logger
	gen.Stop()
	time.AfterFunc(c.gracePeriod, func() {
		if gen.Running() {
			logger.LogForceKill()
		}
		// No-op when the generator already exited on its own.
		gen.Kill()
	})

	c.gen = nil
	c.config = nil
	c.startedAt = time.Time{}
}

// watch is the reconciliation path: it consumes the generator's exit event
// and resets state to the not-running baseline, whether or not a stop was
// ever requested. This is the only way a timer-driven self-exit becomes
// visible to Status.
func (c *Controller) watch(gen *Generator) {
	ev := <-gen.Done()

	c.mu.Lock()
	if c.gen == gen {
		c.gen = nil
		c.config = nil
		c.startedAt = time.Time{}
	}
	onExit := c.onExit
	c.mu.Unlock()

	if onExit != nil {
		onExit(ev)
	}
}
