// Package blockpool provides a fixed-size-block memory pool: a
// pre-reserved contiguous region subdivided into equal slots, handed
// out and reclaimed in O(1) without touching the general-purpose
// allocator per request.
//
// The package provides:
//   - O(1) allocation and release over a LIFO free list
//   - Misuse detection: foreign pointers, misaligned pointers, double free
//   - Side-table slot metadata that callers cannot corrupt
//   - Generation-checked Ref handles for stale-pointer detection
//   - Pluggable backing storage (heap or anonymous mmap)
//
// Example usage:
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
//	// ... use the 48-byte slot ...
//	if err := p.Free(buf); err != nil {
//	    return err
//	}
//
// A Pool is NOT safe for concurrent use. The design assumes one
// logical owner at a time; callers needing concurrent access must add
// external synchronization.
package blockpool

import (
	"unsafe"

	"github.com/memtools/blockpool/pkg/poolerrors"
	"github.com/memtools/blockpool/pkg/region"
)

// minSlotSize is the smallest slot the pool accepts. A slot must be at
// least one pointer word so it could host a free-list link, and slot
// sizes are rounded up to this width so every slot starts aligned.
const minSlotSize = int(unsafe.Sizeof(uintptr(0)))

// slotState tracks whether a slot belongs to the free list or a caller.
type slotState uint8

const (
	slotFree slotState = iota
	slotAllocated
)

// noSlot terminates the free list.
const noSlot int32 = -1

// Pool is a fixed-size-block allocator over a single contiguous
// region. Slot bookkeeping (free list links, free/allocated state,
// generation counters) lives in side tables owned by the pool, never
// inside the region itself, so nothing a caller writes into its slot
// can forge a free marker or corrupt the free list.
//
// The zero value is not usable; construct with New. A Pool is not safe
// for concurrent use.
type Pool struct {
	region    region.Region
	data      []byte
	slotSize  int
	slotCount int

	freeHead int32
	used     int

	next  []int32
	state []slotState
	gen   []uint32

	zeroOnRelease bool
	closed        bool
}

// Stats is a read-only snapshot of pool occupancy.
type Stats struct {
	// SlotSize is the size of each slot in bytes, after alignment rounding
	SlotSize int
	// SlotCount is the total number of slots
	SlotCount int
	// Used is the number of slots currently allocated
	Used int
	// Free is the number of slots on the free list
	Free int
	// Utilization is Used as a percentage of SlotCount
	Utilization float64
}

// New creates a pool of slotCount slots of slotSize bytes each.
//
// slotSize is rounded up to the platform pointer width, so the
// effective slot size (reported by Stats) may be larger than
// requested. slotCount must be at least 1 and slotSize at least one
// pointer word; violations return an invalid_parameters error. A
// backing region of exactly slotSize*slotCount bytes is reserved from
// the configured provider (heap by default); provider failure returns
// an allocation_failure error.
//
// The free list initially links all slots in ascending address order.
func New(slotSize, slotCount int, opts ...Option) (*Pool, error) {
	if slotCount < 1 {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidParameters, "slot count must be at least 1").
			WithDetail("slot_count", slotCount)
	}
	if slotSize < minSlotSize {
		return nil, poolerrors.New(poolerrors.ErrorTypeInvalidParameters, "slot size below minimum").
			WithDetail("slot_size", slotSize).
			WithDetail("min_slot_size", minSlotSize)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Round up to the pointer width so every slot starts aligned.
	slotSize = (slotSize + minSlotSize - 1) &^ (minSlotSize - 1)

	reg, err := cfg.provider(slotSize * slotCount)
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeAllocationFailure, "failed to reserve backing region").
			WithDetail("bytes", slotSize*slotCount)
	}

	p := &Pool{
		region:        reg,
		data:          reg.Bytes(),
		slotSize:      slotSize,
		slotCount:     slotCount,
		freeHead:      0,
		next:          make([]int32, slotCount),
		state:         make([]slotState, slotCount),
		gen:           make([]uint32, slotCount),
		zeroOnRelease: cfg.zeroOnRelease,
	}

	for i := 0; i < slotCount-1; i++ {
		p.next[i] = int32(i + 1)
	}
	p.next[slotCount-1] = noSlot

	return p, nil
}

// Alloc hands out one free slot as a []byte window of exactly the slot
// size (len == cap). The caller has exclusive, mutable access to the
// window until it is passed back to Free.
//
// Returns an exhausted error, with no side effects, when no slot is
// free, and a closed error after Close.
func (p *Pool) Alloc() ([]byte, error) {
	idx, err := p.allocSlot()
	if err != nil {
		return nil, err
	}
	return p.slot(idx), nil
}

// Free returns a slot obtained from Alloc to the pool. The slot
// becomes the new head of the free list (LIFO reuse).
//
// Validation short-circuits on the first failure, in order: nil/empty
// slice (invalid_argument), backing address outside the region
// (foreign_pointer), address not on a slot boundary
// (misaligned_pointer), slot already free (double_free). A failed
// validation mutates nothing.
func (p *Pool) Free(buf []byte) error {
	if p.closed {
		return errClosed()
	}
	if len(buf) == 0 {
		return poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "nil or empty slot")
	}

	start := uintptr(unsafe.Pointer(unsafe.SliceData(p.data)))
	end := start + uintptr(p.slotSize*p.slotCount)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	if addr < start || addr >= end {
		return poolerrors.New(poolerrors.ErrorTypeForeignPointer, "address not from this pool")
	}

	off := int(addr - start)
	if off%p.slotSize != 0 {
		return poolerrors.New(poolerrors.ErrorTypeMisalignedPointer, "address not on a slot boundary").
			WithDetail("offset", off).
			WithDetail("slot_size", p.slotSize)
	}

	idx := int32(off / p.slotSize)
	if p.state[idx] == slotFree {
		return poolerrors.New(poolerrors.ErrorTypeDoubleFree, "slot is already free").
			WithDetail("slot", idx)
	}

	p.freeSlot(idx)
	return nil
}

// Stats returns a snapshot of the pool's counters. It never fails and
// mutates nothing.
func (p *Pool) Stats() Stats {
	return Stats{
		SlotSize:    p.slotSize,
		SlotCount:   p.slotCount,
		Used:        p.used,
		Free:        p.slotCount - p.used,
		Utilization: 100 * float64(p.used) / float64(p.slotCount),
	}
}

// Close releases the backing region exactly once. Closing an already
// closed pool is a safe no-op. Every other operation on a closed pool
// returns a closed error.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.data = nil
	p.freeHead = noSlot
	if err := p.region.Release(); err != nil {
		return poolerrors.Wrap(err, poolerrors.ErrorTypeAllocationFailure, "failed to release backing region")
	}
	return nil
}

// allocSlot pops the free-list head and marks it allocated.
func (p *Pool) allocSlot() (int32, error) {
	if p.closed {
		return noSlot, errClosed()
	}
	if p.freeHead == noSlot {
		return noSlot, poolerrors.New(poolerrors.ErrorTypeExhausted, "no free slots available").
			WithDetail("slot_count", p.slotCount)
	}

	idx := p.freeHead
	p.freeHead = p.next[idx]
	p.next[idx] = noSlot
	p.state[idx] = slotAllocated
	p.gen[idx]++
	p.used++
	return idx, nil
}

// freeSlot marks a slot free and pushes it onto the free list.
func (p *Pool) freeSlot(idx int32) {
	if p.zeroOnRelease {
		clear(p.slot(idx))
	}
	p.state[idx] = slotFree
	p.next[idx] = p.freeHead
	p.freeHead = idx
	p.used--
}

// slot returns the full window of a slot with capacity clamped to the
// slot boundary, so append cannot spill into a neighbour.
func (p *Pool) slot(idx int32) []byte {
	off := int(idx) * p.slotSize
	return p.data[off : off+p.slotSize : off+p.slotSize]
}

func errClosed() error {
	return poolerrors.New(poolerrors.ErrorTypeClosed, "pool is closed")
}
