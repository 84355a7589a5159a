// Package bits provides indexed bit containers and the extraction helpers
// used to pull fields and codewords out of frame bodies.
//
// Bits are stored one per byte (0 or 1) and are always read MSB-first:
// the bit with the lowest index is the most significant bit of the result.
package bits

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an index or range falls outside the container.
var ErrOutOfRange = errors.New("bits: index out of range")

// Bits is an ordered bit container. Each element holds 0 or 1.
type Bits []uint8

// New returns a zeroed container of n bits.
func New(n int) Bits {
	return make(Bits, n)
}

// FromUint returns the low width bits of v, MSB first.
func FromUint(v uint64, width int) Bits {
	b := make(Bits, width)
	for i := 0; i < width; i++ {
		b[i] = uint8(v>>(width-1-i)) & 1
	}
	return b
}

// FromBytes unpacks octets MSB-first.
func FromBytes(data []byte) Bits {
	b := make(Bits, len(data)*8)
	for i := range b {
		b[i] = (data[i/8] >> (7 - i%8)) & 1
	}
	return b
}

// Len returns the number of bits.
func (b Bits) Len() int {
	return len(b)
}

func (b Bits) checkRange(begin, end int) error {
	if begin < 0 || end > len(b) || begin > end {
		return fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, begin, end, len(b))
	}
	if end-begin > 64 {
		return fmt.Errorf("%w: width %d exceeds 64", ErrOutOfRange, end-begin)
	}
	return nil
}

// Extract packs the bits in [begin,end) into an integer, MSB first.
func (b Bits) Extract(begin, end int) (uint64, error) {
	if err := b.checkRange(begin, end); err != nil {
		return 0, err
	}
	var v uint64
	for i := begin; i < end; i++ {
		v = v<<1 | uint64(b[i]&1)
	}
	return v, nil
}

// MustExtract is Extract for offsets taken from constant frame layouts.
// It panics on a range violation.
func (b Bits) MustExtract(begin, end int) uint64 {
	v, err := b.Extract(begin, end)
	if err != nil {
		panic(err)
	}
	return v
}

// ExtractPositions packs the bits at the listed positions, in list order.
func (b Bits) ExtractPositions(pos []int) (uint64, error) {
	if len(pos) > 64 {
		return 0, fmt.Errorf("%w: width %d exceeds 64", ErrOutOfRange, len(pos))
	}
	var v uint64
	for _, p := range pos {
		if p < 0 || p >= len(b) {
			return 0, fmt.Errorf("%w: position %d of %d", ErrOutOfRange, p, len(b))
		}
		v = v<<1 | uint64(b[p]&1)
	}
	return v, nil
}

// Insert writes the low end-begin bits of v into [begin,end), MSB first.
// It is the inverse of Extract.
func (b Bits) Insert(begin, end int, v uint64) error {
	if err := b.checkRange(begin, end); err != nil {
		return err
	}
	width := end - begin
	for i := 0; i < width; i++ {
		b[begin+i] = uint8(v>>(width-1-i)) & 1
	}
	return nil
}

// MustInsert is Insert for offsets taken from constant frame layouts.
func (b Bits) MustInsert(begin, end int, v uint64) {
	if err := b.Insert(begin, end, v); err != nil {
		panic(err)
	}
}

// InsertPositions writes v back to the listed positions. It is the inverse
// of ExtractPositions.
func (b Bits) InsertPositions(pos []int, v uint64) error {
	if len(pos) > 64 {
		return fmt.Errorf("%w: width %d exceeds 64", ErrOutOfRange, len(pos))
	}
	for _, p := range pos {
		if p < 0 || p >= len(b) {
			return fmt.Errorf("%w: position %d of %d", ErrOutOfRange, p, len(b))
		}
	}
	n := len(pos)
	for i, p := range pos {
		b[p] = uint8(v>>(n-1-i)) & 1
	}
	return nil
}

// Slice returns a copy of [begin,end).
func (b Bits) Slice(begin, end int) (Bits, error) {
	if begin < 0 || end > len(b) || begin > end {
		return nil, fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, begin, end, len(b))
	}
	out := make(Bits, end-begin)
	copy(out, b[begin:end])
	return out, nil
}

// Swab reorders the container: output bit i is input bit table[i].
func (b Bits) Swab(table []int) (Bits, error) {
	out := make(Bits, len(table))
	for i, p := range table {
		if p < 0 || p >= len(b) {
			return nil, fmt.Errorf("%w: swab position %d of %d", ErrOutOfRange, p, len(b))
		}
		out[i] = b[p]
	}
	return out, nil
}

// Unswab is the inverse of Swab: input bit i is written to table[i].
func (b Bits) Unswab(dst Bits, table []int) error {
	if len(table) != len(b) {
		return fmt.Errorf("%w: table has %d entries for %d bits", ErrOutOfRange, len(table), len(b))
	}
	for i, p := range table {
		if p < 0 || p >= len(dst) {
			return fmt.Errorf("%w: unswab position %d of %d", ErrOutOfRange, p, len(dst))
		}
		dst[p] = b[i]
	}
	return nil
}

// Bytes packs the container into octets, MSB first. A trailing partial
// octet is zero padded.
func (b Bits) Bytes() []byte {
	out := make([]byte, (len(b)+7)/8)
	for i, v := range b {
		if v&1 != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// Clone returns a copy of the container.
func (b Bits) Clone() Bits {
	out := make(Bits, len(b))
	copy(out, b)
	return out
}
