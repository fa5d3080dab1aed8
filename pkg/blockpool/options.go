package blockpool

import "github.com/memtools/blockpool/pkg/region"

// options collects construction-time settings.
type options struct {
	provider      region.Provider
	zeroOnRelease bool
}

func defaultOptions() options {
	return options{
		provider: region.Heap,
	}
}

// Option configures a Pool at construction time.
type Option func(*options)

// WithRegion selects the backing-region provider. The default reserves
// the region on the Go heap; region.Mmap reserves it through an
// anonymous memory mapping instead.
func WithRegion(p region.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithZeroOnRelease zeroes a slot's bytes when it is returned to the
// free list, so the next allocation never observes a previous owner's
// data. Off by default; releases cost O(slot size) when enabled.
func WithZeroOnRelease() Option {
	return func(o *options) {
		o.zeroOnRelease = true
	}
}
