// Package region provides backing-storage acquisition for blockpool.
// How the contiguous byte region is obtained is a boundary concern:
// the pool only requires that the region exists for its lifetime and
// is released exactly once. Two providers are offered, a plain heap
// buffer and an anonymous memory mapping.
package region

import (
	"fmt"
)

// Region is a contiguous byte buffer with single-release semantics.
// Release is idempotent; Bytes returns nil after release.
type Region interface {
	// Bytes returns the full backing window. The returned slice stays
	// valid until Release.
	Bytes() []byte

	// Release returns the region to its provider. Calling Release more
	// than once is a safe no-op.
	Release() error
}

// Provider reserves a region of the given size in bytes.
type Provider func(size int) (Region, error)

// heapRegion is backed by ordinary Go-managed memory.
type heapRegion struct {
	data []byte
}

// Heap reserves a region on the Go heap.
func Heap(size int) (Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region size must be positive, got %d", size)
	}
	return &heapRegion{data: make([]byte, size)}, nil
}

func (r *heapRegion) Bytes() []byte {
	return r.data
}

func (r *heapRegion) Release() error {
	// Dropping the reference is all the heap needs.
	r.data = nil
	return nil
}
