// Package config provides the configuration surface for the blockpool
// demo driver and CLI. The pool core takes its parameters directly;
// this package only shapes how the outer layers obtain them.
//
// The configuration is organized into logical sections:
//   - Pool: slot geometry, backing storage, release policy
//   - Observability: logging and metrics for the demo layer
//
// Example usage:
//
//	cfg := config.NewDemoConfig()
//	cfg.Pool.SlotCount = 64
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/memtools/blockpool/pkg/region"
)

// Backing selects how the pool's region is reserved.
const (
	// BackingHeap reserves the region on the Go heap
	BackingHeap = "heap"
	// BackingMmap reserves the region through an anonymous memory mapping
	BackingMmap = "mmap"
)

// DemoConfig is the configuration for one demo run.
type DemoConfig struct {
	// Pool holds the pool geometry and policies
	Pool PoolConfig `json:"pool"`

	// Observability settings for the demo layer
	Observability ObservabilityConfig `json:"observability"`
}

// PoolConfig contains pool construction settings.
type PoolConfig struct {
	// SlotSize is the requested slot size in bytes (rounded up by the pool)
	SlotSize int `json:"slot_size"`
	// SlotCount is the total number of slots
	SlotCount int `json:"slot_count"`
	// Backing selects the region provider: "heap" or "mmap"
	Backing string `json:"backing"`
	// ZeroOnRelease clears slot bytes when a slot returns to the free list
	ZeroOnRelease bool `json:"zero_on_release"`
}

// ObservabilityConfig contains logging and metrics settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `json:"log_level"`
	// EnableMetrics activates prometheus collectors for the demo pool
	EnableMetrics bool `json:"enable_metrics"`
}

// NewDemoConfig returns a DemoConfig with the classic demo geometry:
// five 48-byte slots on the heap, metrics on.
func NewDemoConfig() *DemoConfig {
	return &DemoConfig{
		Pool: PoolConfig{
			SlotSize:      48,
			SlotCount:     5,
			Backing:       BackingHeap,
			ZeroOnRelease: false,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			EnableMetrics: true,
		},
	}
}

// Validate validates the configuration for correctness.
func (c *DemoConfig) Validate() error {
	if c.Pool.SlotSize <= 0 {
		return fmt.Errorf("slot_size must be positive")
	}
	if c.Pool.SlotCount <= 0 {
		return fmt.Errorf("slot_count must be positive")
	}
	switch c.Pool.Backing {
	case BackingHeap, BackingMmap:
	default:
		return fmt.Errorf("backing must be %q or %q, got %q", BackingHeap, BackingMmap, c.Pool.Backing)
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

// Provider returns the region provider selected by Backing. Call
// Validate first; unknown values fall back to the heap.
func (p *PoolConfig) Provider() region.Provider {
	if p.Backing == BackingMmap {
		return region.Mmap
	}
	return region.Heap
}

// Load reads a DemoConfig from a JSON file, applying defaults for
// absent fields.
func Load(path string) (*DemoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := NewDemoConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
