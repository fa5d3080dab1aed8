//go:build !linux && !darwin
// +build !linux,!darwin

package region

// Mmap falls back to a heap region on platforms without the anonymous
// mapping path.
func Mmap(size int) (Region, error) {
	return Heap(size)
}
