package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// decodeLines parses each JSON log line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogGeneratorStarted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewEventLoggerWithWriter("test-instance", &buf)

	logger.LogGeneratorStarted(256, 20, 10, 2)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["msg"] != "generator_started" {
		t.Errorf("expected msg generator_started, got %v", entry["msg"])
	}
	if entry["instance"] != "test-instance" {
		t.Errorf("expected instance attribute, got %v", entry["instance"])
	}
	if entry["memory_mb"] != float64(256) {
		t.Errorf("expected memory_mb 256, got %v", entry["memory_mb"])
	}
	if entry["cpu_slice_ms"] != float64(20) {
		t.Errorf("expected cpu_slice_ms 20, got %v", entry["cpu_slice_ms"])
	}
	if entry["max_minutes"] != float64(10) {
		t.Errorf("expected max_minutes 10, got %v", entry["max_minutes"])
	}
	if entry["intensity"] != float64(2) {
		t.Errorf("expected intensity 2, got %v", entry["intensity"])
	}
}

func TestLogGeneratorExitLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewEventLoggerWithWriter("test", &buf)

	logger.LogGeneratorExit("stopped", 1500, 1<<20, 42, nil)
	logger.LogGeneratorExit("fault", 10, 0, 0, errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["level"] != "INFO" {
		t.Errorf("expected INFO level for clean exit, got %v", lines[0]["level"])
	}
	if lines[0]["reason"] != "stopped" {
		t.Errorf("expected reason stopped, got %v", lines[0]["reason"])
	}
	if lines[0]["burn_cycles"] != float64(42) {
		t.Errorf("expected burn_cycles 42, got %v", lines[0]["burn_cycles"])
	}
	if lines[1]["level"] != "ERROR" {
		t.Errorf("expected ERROR level for fault exit, got %v", lines[1]["level"])
	}
	if lines[1]["error"] != "boom" {
		t.Errorf("expected error attribute, got %v", lines[1]["error"])
	}
}

func TestLogForceKillIsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := NewEventLoggerWithWriter("test", &buf)

	logger.LogForceKill()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["level"] != "WARN" {
		t.Errorf("expected WARN level, got %v", lines[0]["level"])
	}
	if lines[0]["msg"] != "force_kill" {
		t.Errorf("expected msg force_kill, got %v", lines[0]["msg"])
	}
}

func TestGlobalEventLogger(t *testing.T) {
	if GetGlobalEventLogger() == nil {
		t.Fatal("expected a no-op logger when none is set")
	}

	var buf bytes.Buffer
	logger := NewEventLoggerWithWriter("global", &buf)
	SetGlobalEventLogger(logger)
	defer SetGlobalEventLogger(nil)

	if GetGlobalEventLogger() != logger {
		t.Error("expected the installed global logger to be returned")
	}
}

func TestNoopEventLoggerDiscards(t *testing.T) {
	logger := NoopEventLogger()
	// Must not panic on any event.
	logger.LogGeneratorStarted(1, 1, 1, 1)
	logger.LogStopRequested(0)
	logger.LogGeneratorReplaced(0)
	logger.LogAllocationComplete(0, 0)
	logger.LogGeneratorExit("stopped", 0, 0, 0, nil)
	logger.LogForceKill()
	logger.LogSpawnFailed(errors.New("x"))
	logger.LogResourceSample(0, 0, 0, 0)
}
