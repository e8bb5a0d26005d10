package hog

import (
	"encoding/json"
	"testing"
)

func TestParseParamsDefaults(t *testing.T) {
	cfg := ParseParams(map[string]interface{}{})

	if cfg.MemoryMB != 256 {
		t.Errorf("expected default memory_mb 256, got %d", cfg.MemoryMB)
	}
	if cfg.CPUSliceMs != 20 {
		t.Errorf("expected default cpu_slice_ms 20, got %d", cfg.CPUSliceMs)
	}
	if cfg.MaxMinutes != 10 {
		t.Errorf("expected default max_minutes 10, got %d", cfg.MaxMinutes)
	}
	if cfg.Intensity != 2 {
		t.Errorf("expected default intensity_multiplier 2, got %d", cfg.Intensity)
	}
}

func TestParseParamsNilValues(t *testing.T) {
	cfg := ParseParams(map[string]interface{}{
		"memory_mb":    nil,
		"cpu_slice_ms": nil,
	})

	if cfg.MemoryMB != 256 || cfg.CPUSliceMs != 20 {
		t.Errorf("expected defaults for nil values, got %+v", cfg)
	}
}

func TestParseParamsClamping(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want Config
	}{
		{
			name: "all above max",
			raw: map[string]interface{}{
				"memory_mb":            5000,
				"cpu_slice_ms":         9999,
				"max_minutes":          200,
				"intensity_multiplier": 1000,
			},
			want: Config{MemoryMB: 2048, CPUSliceMs: 200, MaxMinutes: 120, Intensity: 100},
		},
		{
			name: "all below min",
			raw: map[string]interface{}{
				"memory_mb":            -10,
				"cpu_slice_ms":         0,
				"max_minutes":          0,
				"intensity_multiplier": -1,
			},
			want: Config{MemoryMB: 0, CPUSliceMs: 1, MaxMinutes: 1, Intensity: 1},
		},
		{
			name: "in range",
			raw: map[string]interface{}{
				"memory_mb":            512,
				"cpu_slice_ms":         50,
				"max_minutes":          30,
				"intensity_multiplier": 5,
			},
			want: Config{MemoryMB: 512, CPUSliceMs: 50, MaxMinutes: 30, Intensity: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseParams(tt.raw)
			if got != tt.want {
				t.Errorf("ParseParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseParamsCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want Config
	}{
		{
			name: "json float64 values",
			raw: map[string]interface{}{
				"memory_mb":    float64(128),
				"cpu_slice_ms": float64(40),
			},
			want: Config{MemoryMB: 128, CPUSliceMs: 40, MaxMinutes: 10, Intensity: 2},
		},
		{
			name: "numeric strings",
			raw: map[string]interface{}{
				"memory_mb":   "64",
				"max_minutes": "15",
			},
			want: Config{MemoryMB: 64, CPUSliceMs: 20, MaxMinutes: 15, Intensity: 2},
		},
		{
			name: "float string truncates",
			raw: map[string]interface{}{
				"memory_mb": "64.9",
			},
			want: Config{MemoryMB: 64, CPUSliceMs: 20, MaxMinutes: 10, Intensity: 2},
		},
		{
			name: "non-numeric string falls back to default",
			raw: map[string]interface{}{
				"intensity_multiplier": "abc",
			},
			want: Config{MemoryMB: 256, CPUSliceMs: 20, MaxMinutes: 10, Intensity: 2},
		},
		{
			name: "wrong types fall back to defaults",
			raw: map[string]interface{}{
				"memory_mb":    []int{1, 2},
				"cpu_slice_ms": map[string]string{"a": "b"},
				"max_minutes":  true,
			},
			want: Config{MemoryMB: 256, CPUSliceMs: 20, MaxMinutes: 10, Intensity: 2},
		},
		{
			name: "json.Number values",
			raw: map[string]interface{}{
				"memory_mb":    json.Number("32"),
				"cpu_slice_ms": json.Number("2.5"),
			},
			want: Config{MemoryMB: 32, CPUSliceMs: 2, MaxMinutes: 10, Intensity: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseParams(tt.raw)
			if got != tt.want {
				t.Errorf("ParseParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseParamsNeverOutOfBounds(t *testing.T) {
	// Whatever arrives, the output must be inside documented bounds.
	inputs := []interface{}{-1 << 40, 1 << 40, "1e12", "", "NaN", 3.7, nil, false}
	for _, v := range inputs {
		cfg := ParseParams(map[string]interface{}{
			"memory_mb":            v,
			"cpu_slice_ms":         v,
			"max_minutes":          v,
			"intensity_multiplier": v,
		})
		if cfg.MemoryMB < 0 || cfg.MemoryMB > 2048 {
			t.Errorf("memory_mb out of bounds for input %v: %d", v, cfg.MemoryMB)
		}
		if cfg.CPUSliceMs < 1 || cfg.CPUSliceMs > 200 {
			t.Errorf("cpu_slice_ms out of bounds for input %v: %d", v, cfg.CPUSliceMs)
		}
		if cfg.MaxMinutes < 1 || cfg.MaxMinutes > 120 {
			t.Errorf("max_minutes out of bounds for input %v: %d", v, cfg.MaxMinutes)
		}
		if cfg.Intensity < 1 || cfg.Intensity > 100 {
			t.Errorf("intensity_multiplier out of bounds for input %v: %d", v, cfg.Intensity)
		}
	}
}
