package blockpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtools/blockpool/pkg/poolerrors"
	"github.com/memtools/blockpool/pkg/region"
)

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		slotSize  int
		slotCount int
	}{
		{"zero slot count", 48, 0},
		{"negative slot count", 48, -1},
		{"zero slot size", 0, 5},
		{"slot size below link size", minSlotSize - 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.slotSize, tt.slotCount)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeInvalidParameters))
		})
	}
}

func TestNewRoundsSlotSizeToPointerWidth(t *testing.T) {
	p, err := New(minSlotSize+1, 3)
	require.NoError(t, err)
	defer p.Close()

	stats := p.Stats()
	assert.Equal(t, 2*minSlotSize, stats.SlotSize)
	assert.Zero(t, stats.SlotSize%minSlotSize)

	buf, err := p.Alloc()
	require.NoError(t, err)
	assert.Len(t, buf, stats.SlotSize)
}

func TestNewReportsRegionFailure(t *testing.T) {
	failing := func(size int) (region.Region, error) {
		return nil, poolerrors.New(poolerrors.ErrorTypeAllocationFailure, "provider refused")
	}

	p, err := New(48, 5, WithRegion(failing))
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeAllocationFailure))
}

func TestAllocUntilExhausted(t *testing.T) {
	const slots = 4

	p, err := New(32, slots)
	require.NoError(t, err)
	defer p.Close()

	bufs := make([][]byte, 0, slots)
	for i := 0; i < slots; i++ {
		buf, err := p.Alloc()
		require.NoError(t, err, "allocation %d should succeed", i+1)
		require.Len(t, buf, 32)
		bufs = append(bufs, buf)

		stats := p.Stats()
		assert.Equal(t, i+1, stats.Used)
		assert.LessOrEqual(t, stats.Used, stats.SlotCount)
	}

	// The pool is full: one more allocation fails with no side effects.
	_, err = p.Alloc()
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeExhausted))
	assert.Equal(t, slots, p.Stats().Used)

	// Draining and refilling still works.
	for _, buf := range bufs {
		require.NoError(t, p.Free(buf))
	}
	assert.Zero(t, p.Stats().Used)
}

func TestSlotsDoNotAlias(t *testing.T) {
	p, err := New(16, 3)
	require.NoError(t, err)
	defer p.Close()

	a, err := p.Alloc()
	require.NoError(t, err)
	b, err := p.Alloc()
	require.NoError(t, err)

	for i := range a {
		a[i] = 0xAA
	}
	for i := range b {
		b[i] = 0xBB
	}
	for i := range a {
		assert.EqualValues(t, 0xAA, a[i])
	}
}

func TestLIFOReuse(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Alloc()
	require.NoError(t, err)

	require.NoError(t, p.Free(first))

	second, err := p.Alloc()
	require.NoError(t, err)

	// The just-released slot is reused, and the whole span is writable.
	assert.True(t, &first[0] == &second[0], "expected LIFO reuse of the released slot")
	for i := range second {
		second[i] = byte(i)
	}
}

func TestDoubleFreeRejected(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)
	defer p.Close()

	a, err := p.Alloc()
	require.NoError(t, err)
	b, err := p.Alloc()
	require.NoError(t, err)

	require.NoError(t, p.Free(a))
	usedAfterFree := p.Stats().Used

	err = p.Free(a)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeDoubleFree))
	assert.Equal(t, usedAfterFree, p.Stats().Used)

	// The free list survives the rejected release: the slot comes back
	// exactly once and the other allocation is untouched.
	again, err := p.Alloc()
	require.NoError(t, err)
	assert.True(t, &a[0] == &again[0])
	require.NoError(t, p.Free(b))
	require.NoError(t, p.Free(again))
	assert.Zero(t, p.Stats().Used)
}

func TestForeignPointerRejected(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Alloc()
	require.NoError(t, err)
	before := p.Stats()

	foreign := make([]byte, 48)
	err = p.Free(foreign)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeForeignPointer))
	assert.Equal(t, before, p.Stats())
}

func TestMisalignedPointerRejected(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)
	defer p.Close()

	buf, err := p.Alloc()
	require.NoError(t, err)
	before := p.Stats()

	// Inside the region, but not on a slot boundary.
	err = p.Free(buf[1:])
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeMisalignedPointer))
	assert.Equal(t, before, p.Stats())
}

func TestFreeNilRejected(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)
	defer p.Close()

	err = p.Free(nil)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeInvalidArgument))
}

func TestStats(t *testing.T) {
	p, err := New(48, 4)
	require.NoError(t, err)
	defer p.Close()

	stats := p.Stats()
	assert.Equal(t, 48, stats.SlotSize)
	assert.Equal(t, 4, stats.SlotCount)
	assert.Zero(t, stats.Used)
	assert.Equal(t, 4, stats.Free)
	assert.Zero(t, stats.Utilization)

	a, err := p.Alloc()
	require.NoError(t, err)
	_, err = p.Alloc()
	require.NoError(t, err)

	stats = p.Stats()
	assert.Equal(t, 2, stats.Used)
	assert.Equal(t, 2, stats.Free)
	assert.InDelta(t, 50.0, stats.Utilization, 0.001)

	require.NoError(t, p.Free(a))
	assert.Equal(t, 1, p.Stats().Used)
}

// TestFullScenario walks the pool through a complete lifecycle: partial
// fill, LIFO reuse of a released slot, exhaustion, teardown.
func TestFullScenario(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)

	var bufs [][]byte
	for i := 0; i < 3; i++ {
		buf, err := p.Alloc()
		require.NoError(t, err)
		bufs = append(bufs, buf)
	}
	assert.Equal(t, 3, p.Stats().Used)
	assert.Equal(t, 2, p.Stats().Free)

	// Release the second allocation; the next allocation reuses it.
	require.NoError(t, p.Free(bufs[1]))
	assert.Equal(t, 2, p.Stats().Used)

	reused, err := p.Alloc()
	require.NoError(t, err)
	assert.True(t, &bufs[1][0] == &reused[0])

	// Fill the remaining slots.
	_, err = p.Alloc()
	require.NoError(t, err)
	_, err = p.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stats().Used)

	_, err = p.Alloc()
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeExhausted))

	require.NoError(t, p.Close())
}

func TestZeroOnRelease(t *testing.T) {
	p, err := New(16, 2, WithZeroOnRelease())
	require.NoError(t, err)
	defer p.Close()

	buf, err := p.Alloc()
	require.NoError(t, err)
	for i := range buf {
		buf[i] = 0xFF
	}
	require.NoError(t, p.Free(buf))

	again, err := p.Alloc()
	require.NoError(t, err)
	for i := range again {
		assert.Zero(t, again[i], "byte %d should have been cleared on release", i)
	}
}

func TestReleaseKeepsStaleBytesByDefault(t *testing.T) {
	p, err := New(16, 1)
	require.NoError(t, err)
	defer p.Close()

	buf, err := p.Alloc()
	require.NoError(t, err)
	buf[0] = 0x7E
	require.NoError(t, p.Free(buf))

	again, err := p.Alloc()
	require.NoError(t, err)
	assert.EqualValues(t, 0x7E, again[0])
}

func TestCloseIsIdempotent(t *testing.T) {
	p, err := New(48, 5)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Alloc()
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeClosed))

	err = p.Free(make([]byte, 48))
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeClosed))
}

func TestMmapBackedPool(t *testing.T) {
	p, err := New(64, 8, WithRegion(region.Mmap))
	require.NoError(t, err)

	buf, err := p.Alloc()
	require.NoError(t, err)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, p.Free(buf))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestFreedMarkerIsOutOfBand(t *testing.T) {
	p, err := New(32, 2)
	require.NoError(t, err)
	defer p.Close()

	buf, err := p.Alloc()
	require.NoError(t, err)

	// A caller scribbling over every byte of its slot must not be able
	// to forge a free marker: the release still succeeds exactly once.
	for i := range buf {
		buf[i] = 0xFF
	}
	require.NoError(t, p.Free(buf))

	err = p.Free(buf)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeDoubleFree))
}

func BenchmarkAllocFree(b *testing.B) {
	p, err := New(48, 1024)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, err := p.Alloc()
		if err != nil {
			b.Fatal(err)
		}
		if err := p.Free(buf); err != nil {
			b.Fatal(err)
		}
	}
}
