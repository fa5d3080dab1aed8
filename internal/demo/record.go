package demo

import (
	"encoding/binary"
	"math"
)

// record is the example payload the demo stores in pool slots: an ID,
// a fixed-width name, and a value. Encoded it occupies exactly
// recordSize bytes, the classic demo slot geometry.
type record struct {
	ID    int64
	Name  string
	Value float64
}

const (
	nameWidth  = 32
	recordSize = 8 + nameWidth + 8
)

// encodeRecord writes r into the leading recordSize bytes of buf.
// buf must be at least recordSize long.
func encodeRecord(buf []byte, r record) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.ID))

	name := buf[8 : 8+nameWidth]
	clear(name)
	copy(name, r.Name)

	binary.LittleEndian.PutUint64(buf[8+nameWidth:recordSize], math.Float64bits(r.Value))
}

// decodeRecord reads a record back out of a slot.
func decodeRecord(buf []byte) record {
	name := buf[8 : 8+nameWidth]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}

	return record{
		ID:    int64(binary.LittleEndian.Uint64(buf[0:8])),
		Name:  string(name[:end]),
		Value: math.Float64frombits(binary.LittleEndian.Uint64(buf[8+nameWidth : recordSize])),
	}
}
