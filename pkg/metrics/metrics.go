// Package metrics provides Prometheus collectors for pool occupancy
// and operation outcomes. It is consumed by the demo layer; the pool
// core exposes counters through Stats and knows nothing about
// Prometheus.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("demo")
//	collector.RecordAllocation()
//	collector.ObserveOccupancy(stats.Used, stats.Free, stats.Utilization)
//
// # Metric Types
//
// Counter: Monotonically increasing values (allocations, releases, errors)
// Gauge: Values that can go up or down (slots used/free, utilization)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pre-registered metric vectors, labeled by pool name.
var (
	// SlotsUsed tracks the number of currently allocated slots
	SlotsUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blockpool_slots_used",
			Help: "Number of slots currently allocated",
		},
		[]string{"pool"},
	)

	// SlotsFree tracks the number of slots on the free list
	SlotsFree = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blockpool_slots_free",
			Help: "Number of slots on the free list",
		},
		[]string{"pool"},
	)

	// Utilization tracks used slots as a percentage of capacity
	Utilization = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blockpool_utilization_percent",
			Help: "Used slots as a percentage of total slots",
		},
		[]string{"pool"},
	)

	// Allocations counts successful slot allocations
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockpool_allocations_total",
			Help: "Total successful slot allocations",
		},
		[]string{"pool"},
	)

	// Releases counts successful slot releases
	Releases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockpool_releases_total",
			Help: "Total successful slot releases",
		},
		[]string{"pool"},
	)

	// OperationErrors counts rejected operations by error type
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockpool_operation_errors_total",
			Help: "Total rejected pool operations by error type",
		},
		[]string{"pool", "type"},
	)
)

// Collector provides a pool-scoped recording interface over the shared
// metric vectors. Each instrumented pool should create its own
// collector.
type Collector struct {
	name      string
	startTime time.Time
}

// NewCollector creates a metrics collector for the named pool.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
	}
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordAllocation counts one successful allocation
func (c *Collector) RecordAllocation() {
	Allocations.WithLabelValues(c.name).Inc()
}

// RecordRelease counts one successful release
func (c *Collector) RecordRelease() {
	Releases.WithLabelValues(c.name).Inc()
}

// RecordError counts one rejected operation of the given error type
func (c *Collector) RecordError(errType string) {
	OperationErrors.WithLabelValues(c.name, errType).Inc()
}

// ObserveOccupancy updates the occupancy gauges from a stats snapshot
func (c *Collector) ObserveOccupancy(used, free int, utilization float64) {
	SlotsUsed.WithLabelValues(c.name).Set(float64(used))
	SlotsFree.WithLabelValues(c.name).Set(float64(free))
	Utilization.WithLabelValues(c.name).Set(utilization)
}
