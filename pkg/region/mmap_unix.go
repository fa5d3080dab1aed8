//go:build linux || darwin
// +build linux darwin

package region

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapRegion is backed by an anonymous private mapping, outside the
// Go heap and invisible to the garbage collector.
type mmapRegion struct {
	data []byte
}

// Mmap reserves a region through an anonymous private memory mapping.
func Mmap(size int) (Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	return &mmapRegion{data: data}, nil
}

func (r *mmapRegion) Bytes() []byte {
	return r.data
}

func (r *mmapRegion) Release() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}
