// Package blockpool provides a fixed-size-block memory pool: a
// pre-reserved contiguous region subdivided into equal slots, handed
// out and reclaimed in O(1) without invoking the general-purpose
// allocator per request.
//
// The pool detects misuse at the release boundary instead of
// corrupting memory:
//   - Foreign pointers (addresses outside the pool's region)
//   - Misaligned pointers (in-region addresses off a slot boundary)
//   - Double frees (slots that are already on the free list)
//   - Stale handles (generation-checked Ref API)
//
// # Architecture
//
// Slot bookkeeping lives in side tables owned by the pool, never
// inside the region itself, so nothing a caller writes into its slot
// can forge a free marker. The free list is a LIFO chain of slot
// indexes: allocation pops the head, release pushes the slot back, and
// the most recently released slot is always the next one handed out.
//
// # Quick Start
//
//	import "github.com/memtools/blockpool/pkg/blockpool"
//
//	p, err := blockpool.New(48, 5)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	buf, err := p.Alloc()
//	if err != nil {
//	    return err
//	}
//	// ... use the slot ...
//	if err := p.Free(buf); err != nil {
//	    return err
//	}
//
// # Key Packages
//
//	pkg/blockpool    - The pool engine: allocation, release, validation
//	pkg/region       - Backing-region acquisition (heap, anonymous mmap)
//	pkg/poolerrors   - Structured error taxonomy for pool misuse
//	pkg/config       - Configuration for the demo driver and CLI
//	pkg/logger       - Structured logging for the outer layers
//	pkg/metrics      - Prometheus collectors for pool occupancy
//	internal/demo    - Scripted demo scenario
//	cmd/blockpool    - Command line interface
//
// A Pool is not safe for concurrent use; callers needing concurrent
// access must add external synchronization.
package blockpool
