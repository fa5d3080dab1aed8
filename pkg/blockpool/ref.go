package blockpool

import "github.com/memtools/blockpool/pkg/poolerrors"

// Ref is an opaque handle to an allocated slot. Unlike the raw []byte
// returned by Alloc, a Ref carries the slot's generation at allocation
// time, so a handle kept across a release/re-allocate cycle is
// detected as stale instead of silently freeing the new owner's slot.
type Ref struct {
	index int32
	gen   uint32
}

// AllocRef allocates a slot and returns both a generation-checked
// handle and the slot's byte window. Errors match Alloc.
func (p *Pool) AllocRef() (Ref, []byte, error) {
	idx, err := p.allocSlot()
	if err != nil {
		return Ref{}, nil, err
	}
	return Ref{index: idx, gen: p.gen[idx]}, p.slot(idx), nil
}

// FreeRef releases the slot behind a handle. A handle for a slot that
// is already free, or whose slot has been re-allocated since the
// handle was issued, is rejected as double_free.
func (p *Pool) FreeRef(r Ref) error {
	if p.closed {
		return errClosed()
	}
	if r.index < 0 || int(r.index) >= p.slotCount {
		return poolerrors.New(poolerrors.ErrorTypeForeignPointer, "handle not from this pool").
			WithDetail("slot", r.index)
	}
	if p.state[r.index] == slotFree {
		return poolerrors.New(poolerrors.ErrorTypeDoubleFree, "slot is already free").
			WithDetail("slot", r.index)
	}
	if p.gen[r.index] != r.gen {
		return poolerrors.New(poolerrors.ErrorTypeDoubleFree, "stale handle, slot was re-allocated").
			WithDetail("slot", r.index).
			WithDetail("handle_generation", r.gen).
			WithDetail("slot_generation", p.gen[r.index])
	}

	p.freeSlot(r.index)
	return nil
}

// Bytes returns the byte window behind a live handle. Stale or free
// handles are rejected with the same taxonomy as FreeRef.
func (p *Pool) Bytes(r Ref) ([]byte, error) {
	if p.closed {
		return nil, errClosed()
	}
	if r.index < 0 || int(r.index) >= p.slotCount {
		return nil, poolerrors.New(poolerrors.ErrorTypeForeignPointer, "handle not from this pool").
			WithDetail("slot", r.index)
	}
	if p.state[r.index] == slotFree || p.gen[r.index] != r.gen {
		return nil, poolerrors.New(poolerrors.ErrorTypeDoubleFree, "stale handle").
			WithDetail("slot", r.index)
	}
	return p.slot(r.index), nil
}
