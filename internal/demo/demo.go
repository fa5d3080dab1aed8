// Package demo drives the blockpool API through the classic memory
// pool scenario: partial fill, misuse attempts, LIFO reuse, and
// exhaustion, logging a stats snapshot after each phase. It is the
// repository's illustrative scaffolding; the correctness guarantees
// live in pkg/blockpool.
package demo

import (
	"errors"

	"go.uber.org/zap"

	"github.com/memtools/blockpool/pkg/blockpool"
	"github.com/memtools/blockpool/pkg/config"
	"github.com/memtools/blockpool/pkg/metrics"
	"github.com/memtools/blockpool/pkg/poolerrors"
)

// Snapshot is one logged stats observation.
type Snapshot struct {
	Phase string
	Stats blockpool.Stats
}

// Report summarizes what the scenario observed, for tests and callers.
type Report struct {
	Snapshots []Snapshot

	// DoubleFreeRejected is true when the deliberate second release was
	// refused with a double_free error
	DoubleFreeRejected bool
	// ReusedReleasedSlot is true when the allocation after a release
	// returned the just-released slot (LIFO reuse)
	ReusedReleasedSlot bool
	// ExhaustionObserved is true when allocating past capacity was
	// refused with an exhausted error
	ExhaustionObserved bool
}

// Run executes the demo scenario against a pool built from cfg. The
// pool needs slots large enough for the demo record and at least three
// of them.
func Run(cfg *config.DemoConfig, log *zap.Logger) (*Report, error) {
	if cfg.Pool.SlotSize < recordSize {
		return nil, errors.New("demo requires slots of at least 48 bytes")
	}
	if cfg.Pool.SlotCount < 3 {
		return nil, errors.New("demo requires at least 3 slots")
	}

	opts := []blockpool.Option{blockpool.WithRegion(cfg.Pool.Provider())}
	if cfg.Pool.ZeroOnRelease {
		opts = append(opts, blockpool.WithZeroOnRelease())
	}

	pool, err := blockpool.New(cfg.Pool.SlotSize, cfg.Pool.SlotCount, opts...)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	var collector *metrics.Collector
	if cfg.Observability.EnableMetrics {
		collector = metrics.NewCollector("demo")
	}

	report := &Report{}
	observe := func(phase string) {
		stats := pool.Stats()
		report.Snapshots = append(report.Snapshots, Snapshot{Phase: phase, Stats: stats})
		if collector != nil {
			collector.ObserveOccupancy(stats.Used, stats.Free, stats.Utilization)
		}
		log.Info("pool statistics",
			zap.String("phase", phase),
			zap.Int("slot_size", stats.SlotSize),
			zap.Int("slot_count", stats.SlotCount),
			zap.Int("used", stats.Used),
			zap.Int("free", stats.Free),
			zap.Float64("utilization_percent", stats.Utilization))
	}

	alloc := func() ([]byte, error) {
		buf, err := pool.Alloc()
		if collector != nil {
			if err != nil {
				collector.RecordError(errType(err))
			} else {
				collector.RecordAllocation()
			}
		}
		return buf, err
	}
	free := func(buf []byte) error {
		err := pool.Free(buf)
		if collector != nil {
			if err != nil {
				collector.RecordError(errType(err))
			} else {
				collector.RecordRelease()
			}
		}
		return err
	}

	observe("created")

	// Fill three slots with example payloads.
	seed := []record{
		{ID: 1, Name: "First", Value: 3.14},
		{ID: 2, Name: "Second", Value: 2.71},
		{ID: 3, Name: "Third", Value: 1.41},
	}
	bufs := make([][]byte, 0, len(seed))
	for _, r := range seed {
		buf, err := alloc()
		if err != nil {
			return nil, err
		}
		encodeRecord(buf, r)
		got := decodeRecord(buf)
		log.Info("allocated record",
			zap.Int64("id", got.ID),
			zap.String("name", got.Name),
			zap.Float64("value", got.Value))
		bufs = append(bufs, buf)
	}
	observe("allocated")

	// Release the second record.
	log.Info("releasing record", zap.Int64("id", 2))
	if err := free(bufs[1]); err != nil {
		return nil, err
	}
	observe("released")

	// A second release of the same slot must be refused.
	log.Info("attempting double free")
	if err := free(bufs[1]); poolerrors.IsType(err, poolerrors.ErrorTypeDoubleFree) {
		report.DoubleFreeRejected = true
		log.Info("double free rejected", zap.Error(err))
	} else if err == nil {
		return nil, errors.New("double free was not rejected")
	} else {
		return nil, err
	}

	// The next allocation reuses the released slot.
	log.Info("allocating again, expecting reuse of the released slot")
	reused, err := alloc()
	if err != nil {
		return nil, err
	}
	report.ReusedReleasedSlot = &reused[0] == &bufs[1][0]
	encodeRecord(reused, record{ID: 4, Name: "Fourth", Value: 0.57})
	observe("reused")

	// Fill whatever is left, then allocate once more to hit exhaustion.
	for pool.Stats().Free > 0 {
		if _, err := alloc(); err != nil {
			return nil, err
		}
	}
	if _, err := alloc(); poolerrors.IsType(err, poolerrors.ErrorTypeExhausted) {
		report.ExhaustionObserved = true
		log.Info("pool exhausted as expected", zap.Error(err))
	} else if err == nil {
		return nil, errors.New("allocation past capacity unexpectedly succeeded")
	} else {
		return nil, err
	}
	observe("exhausted")

	if err := pool.Close(); err != nil {
		return nil, err
	}
	log.Info("pool destroyed")

	return report, nil
}

// errType extracts the taxonomy label for metrics.
func errType(err error) string {
	var e *poolerrors.Error
	if errors.As(err, &e) {
		return string(e.Type)
	}
	return "unknown"
}
