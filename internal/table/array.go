package table

import (
	"fmt"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/format"
)

// Array is one variable-length row cell: a run of elements that lives in
// the heap on disk. Arrays read from a file alias the heap bytes.
type Array struct {
	code  format.Code
	data  []byte
	order bx.Order
}

// NewArray allocates a zeroed array of n elements in native byte order.
func NewArray(code format.Code, n int) *Array {
	return &Array{code: code, data: make([]byte, n*code.Width()), order: bx.Native}
}

func (a *Array) Code() format.Code { return a.code }

// Order is the byte order the elements are currently stored in.
func (a *Array) Order() bx.Order { return a.order }

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.data) / a.code.Width()
}

// Bytes exposes the element bytes in their current order.
func (a *Array) Bytes() []byte { return a.data }

func (a *Array) Value(i int) any {
	w := a.code.Width()
	return getElem(a.code, a.order, a.data[i*w:(i+1)*w])
}

func (a *Array) Set(i int, v any) error {
	if i < 0 || i >= a.Len() {
		return fmt.Errorf("%w: index %d of %d", ErrShapeMismatch, i, a.Len())
	}
	w := a.code.Width()
	return putElem(a.code, a.order, a.data[i*w:(i+1)*w], v)
}

// Values decodes the whole array: a string for characters, otherwise a
// []bool, []int64, []float64 or []complex128.
func (a *Array) Values() any {
	if a == nil {
		return nil
	}
	return decode(a.code, a.order, a.data, a.Len())
}

// Clone returns an owned copy in the same byte order.
func (a *Array) Clone() *Array {
	return &Array{code: a.code, data: append([]byte(nil), a.data...), order: a.order}
}

// bigEndian returns the element bytes as they go to disk, copying only
// when a swap is needed.
func (a *Array) bigEndian() []byte {
	if a.order == bx.BigEndian || a.code.SwapWidth() <= 1 {
		return a.data
	}
	out := append([]byte(nil), a.data...)
	bx.Swap(out, a.code.SwapWidth())
	return out
}

// flip swaps the elements in place and retags the order.
func (a *Array) flip() {
	bx.Swap(a.data, a.code.SwapWidth())
	a.order = a.order.Swapped()
}

func (a *Array) needsSwap() bool {
	return a != nil && a.order != bx.BigEndian && a.code.SwapWidth() > 1
}
