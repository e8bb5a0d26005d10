package events

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EventLogger provides structured logging for generator lifecycle events.
type EventLogger struct {
	logger   *slog.Logger
	instance string
}

// NewEventLogger creates a new EventLogger with JSON output to stdout.
// It includes the instance name as a base attribute.
func NewEventLogger(instance string) *EventLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler).With("instance", instance)
	return &EventLogger{
		logger:   logger,
		instance: instance,
	}
}

// NewEventLoggerWithWriter creates a new EventLogger with JSON output to a
// custom writer. Useful for testing or redirecting output.
func NewEventLoggerWithWriter(instance string, w io.Writer) *EventLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler).With("instance", instance)
	return &EventLogger{
		logger:   logger,
		instance: instance,
	}
}

// LogGeneratorStarted logs a generator spawn.
// event: "generator_started"
// Attributes: memory_mb, cpu_slice_ms, max_minutes, intensity
func (el *EventLogger) LogGeneratorStarted(memoryMB, cpuSliceMs, maxMinutes, intensity int) {
	el.logger.Info("generator_started",
		"memory_mb", memoryMB,
		"cpu_slice_ms", cpuSliceMs,
		"max_minutes", maxMinutes,
		"intensity", intensity,
	)
}

// LogStopRequested logs a stop request against an active generator.
// event: "stop_requested"
// Attributes: runtime_ms
func (el *EventLogger) LogStopRequested(runtimeMs int64) {
	el.logger.Info("stop_requested",
		"runtime_ms", runtimeMs,
	)
}

// LogGeneratorReplaced logs the teardown of an active generator because a
// new start arrived.
// event: "generator_replaced"
// Attributes: runtime_ms
func (el *EventLogger) LogGeneratorReplaced(runtimeMs int64) {
	el.logger.Info("generator_replaced",
		"runtime_ms", runtimeMs,
	)
}

// LogAllocationComplete logs the end of the allocation phase.
// event: "allocation_complete"
// Attributes: allocated_bytes, elapsed_ms
func (el *EventLogger) LogAllocationComplete(allocatedBytes, elapsedMs int64) {
	el.logger.Info("allocation_complete",
		"allocated_bytes", allocatedBytes,
		"elapsed_ms", elapsedMs,
	)
}

// LogGeneratorExit logs a generator's exit event.
// event: "generator_exit"
// Attributes: reason, runtime_ms, allocated_bytes, burn_cycles, error?
func (el *EventLogger) LogGeneratorExit(reason string, runtimeMs, allocatedBytes, burnCycles int64, err error) {
	attrs := []any{
		"reason", reason,
		"runtime_ms", runtimeMs,
		"allocated_bytes", allocatedBytes,
		"burn_cycles", burnCycles,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		el.logger.Error("generator_exit", attrs...)
		return
	}
	el.logger.Info("generator_exit", attrs...)
}

// LogForceKill logs the grace-period escalation firing against a generator
// that has not exited cooperatively.
// event: "force_kill"
func (el *EventLogger) LogForceKill() {
	el.logger.Warn("force_kill")
}

// LogSpawnFailed logs a generator that could not be started.
// event: "spawn_failed"
// Attributes: error
func (el *EventLogger) LogSpawnFailed(err error) {
	el.logger.Error("spawn_failed",
		"error", err.Error(),
	)
}

// LogResourceSample logs a periodic host/process resource sample.
// event: "resource_sample"
// Attributes: host_cpu_percent, mem_used, proc_rss, proc_cpu_percent
func (el *EventLogger) LogResourceSample(hostCPUPercent float64, memUsed, procRSS uint64, procCPUPercent float64) {
	el.logger.Info("resource_sample",
		"host_cpu_percent", hostCPUPercent,
		"mem_used", memUsed,
		"proc_rss", procRSS,
		"proc_cpu_percent", procCPUPercent,
	)
}

// Global logger management
var (
	globalLogger *EventLogger
	globalMu     sync.RWMutex
)

// SetGlobalEventLogger sets the global event logger instance.
func SetGlobalEventLogger(l *EventLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalEventLogger returns the global event logger instance.
// If no logger is set, returns a no-op logger.
func GetGlobalEventLogger() *EventLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return NoopEventLogger()
}

// NoopEventLogger returns an event logger that discards all events.
// Useful for testing or when event logging is disabled.
func NoopEventLogger() *EventLogger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &EventLogger{
		logger: slog.New(handler),
	}
}
