package config

import "time"

// Parameter bounds and defaults for the load generator. Out-of-range values
// are clamped, never rejected.
const (
	MinMemoryMB     = 0
	MaxMemoryMB     = 2048
	DefaultMemoryMB = 256

	MinCPUSliceMs     = 1
	MaxCPUSliceMs     = 200
	DefaultCPUSliceMs = 20

	MinMaxMinutes     = 1
	MaxMaxMinutes     = 120
	DefaultMaxMinutes = 10

	MinIntensity     = 1
	MaxIntensity     = 100
	DefaultIntensity = 2
)

const (
	// AllocChunkBytes is the size of each allocation step during the
	// memory phase. Every byte of a chunk is written to defeat lazy
	// virtual allocation.
	AllocChunkBytes = 8 * 1024 * 1024

	// StopGracePeriod is how long a generator gets to exit cooperatively
	// after a stop signal before it is force-killed.
	StopGracePeriod = 1 * time.Second
)
