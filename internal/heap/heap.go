// Package heap lays out the variable-length array region that follows the
// fixed-width rows of a binary table.
package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novafits/internal/alias/bx"
)

var ErrOutOfRange = errors.New("heap: descriptor points outside the heap")

// Descriptor locates one row array: element count and byte offset from
// the start of the heap.
type Descriptor struct {
	Len    int64
	Offset int64
}

// Size is the byte width of a descriptor cell in a row.
func Size(long bool) int {
	if long {
		return 16
	}
	return 8
}

// Put stores d big-endian into a row cell.
func Put(b []byte, long bool, d Descriptor) {
	if long {
		bx.PutU64BE(b[0:8], uint64(d.Len))
		bx.PutU64BE(b[8:16], uint64(d.Offset))
		return
	}
	bx.PutU32BE(b[0:4], uint32(d.Len))
	bx.PutU32BE(b[4:8], uint32(d.Offset))
}

// Read decodes a big-endian row cell.
func Read(b []byte, long bool) Descriptor {
	if long {
		return Descriptor{Len: int64(bx.U64BE(b[0:8])), Offset: int64(bx.U64BE(b[8:16]))}
	}
	return Descriptor{Len: int64(bx.U32BE(b[0:4])), Offset: int64(bx.U32BE(b[4:8]))}
}

// Check verifies that d, with elements of width bytes, fits in a heap of
// size bytes.
func (d Descriptor) Check(width int, size int64) error {
	if d.Len < 0 || d.Offset < 0 || d.Offset+d.Len*int64(width) > size {
		return fmt.Errorf("%w: len=%d offset=%d width=%d heap=%d",
			ErrOutOfRange, d.Len, d.Offset, width, size)
	}
	return nil
}

// Layout is the append-only heap of a single write pass. Arrays are placed
// back to back, column by column and row by row, in the order appended.
type Layout struct {
	size  int64
	descs map[int][]Descriptor
	order []int
}

func NewLayout() *Layout {
	return &Layout{descs: make(map[int][]Descriptor)}
}

// Append reserves room for one row array of field col and returns its
// descriptor. Empty arrays get offset 0 and take no room.
func (l *Layout) Append(col int, elems, width int) Descriptor {
	if _, ok := l.descs[col]; !ok {
		l.order = append(l.order, col)
	}
	d := Descriptor{Len: int64(elems)}
	if elems > 0 {
		d.Offset = l.size
		l.size += int64(elems * width)
	}
	l.descs[col] = append(l.descs[col], d)
	return d
}

// Size is the number of heap bytes laid out so far.
func (l *Layout) Size() int64 { return l.size }

// Descriptors returns the row descriptors of field col in row order.
func (l *Layout) Descriptors(col int) []Descriptor { return l.descs[col] }

// Fields lists the fields with arrays in the heap, in append order.
func (l *Layout) Fields() []int { return append([]int(nil), l.order...) }

// MaxLen is the longest array recorded for field col.
func (l *Layout) MaxLen(col int) int {
	m := 0
	for _, d := range l.descs[col] {
		m = max(m, int(d.Len))
	}
	return m
}
