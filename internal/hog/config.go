// Package hog implements a bounded synthetic load generator and the
// controller that owns its lifecycle. It exists to drive CPU and memory
// consumption on purpose so that autoscaling behavior can be exercised
// under test; it performs no real work.
package hog

import (
	"encoding/json"
	"strconv"

	cfgpkg "github.com/bc-dunia/loadhog/internal/config"
)

// Config is an immutable parameter set for a single generator. It is
// produced once per start request by ParseParams and never mutated.
type Config struct {
	MemoryMB   int `json:"memory_mb"`
	CPUSliceMs int `json:"cpu_slice_ms"`
	MaxMinutes int `json:"max_minutes"`
	Intensity  int `json:"intensity_multiplier"`
}

// ParseParams builds a Config from an untyped parameter map. It never
// fails: missing or non-numeric values fall back to defaults, and numeric
// values are clamped into their documented bounds. The subsystem is a test
// aid, so permissive defaults beat strict validation errors.
func ParseParams(raw map[string]interface{}) Config {
	return Config{
		MemoryMB:   clampInt(intParam(raw, "memory_mb", cfgpkg.DefaultMemoryMB), cfgpkg.MinMemoryMB, cfgpkg.MaxMemoryMB),
		CPUSliceMs: clampInt(intParam(raw, "cpu_slice_ms", cfgpkg.DefaultCPUSliceMs), cfgpkg.MinCPUSliceMs, cfgpkg.MaxCPUSliceMs),
		MaxMinutes: clampInt(intParam(raw, "max_minutes", cfgpkg.DefaultMaxMinutes), cfgpkg.MinMaxMinutes, cfgpkg.MaxMaxMinutes),
		Intensity:  clampInt(intParam(raw, "intensity_multiplier", cfgpkg.DefaultIntensity), cfgpkg.MinIntensity, cfgpkg.MaxIntensity),
	}
}

// intParam coerces a raw parameter to int. JSON decoding hands numbers over
// as float64 (or json.Number when configured); callers from flags or query
// strings hand over strings. Anything else falls back to the default.
func intParam(raw map[string]interface{}, key string, def int) int {
	v, ok := raw[key]
	if !ok || v == nil {
		return def
	}

	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
		return def
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int(f)
		}
		return def
	default:
		return def
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
