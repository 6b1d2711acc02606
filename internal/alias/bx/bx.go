// stand for bytes helper
package bx

import (
	"encoding/binary"
	"math"
)

var (
	LE = binary.LittleEndian
	BE = binary.BigEndian
)

// Order tags the byte order a buffer segment is currently stored in.
type Order uint8

const (
	BigEndian Order = iota + 1
	LittleEndian
)

// Native is the byte order of the running machine.
var Native = nativeOrder()

func nativeOrder() Order {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return LittleEndian
	}
	return BigEndian
}

func (o Order) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return "unknown"
	}
}

func (o Order) ByteOrder() binary.ByteOrder {
	if o == LittleEndian {
		return LE
	}
	return BE
}

// Swapped returns the opposite order.
func (o Order) Swapped() Order {
	if o == LittleEndian {
		return BigEndian
	}
	return LittleEndian
}

// Swap reverses, in place, every width-sized element of b.
// A trailing partial element is left untouched.
func Swap(b []byte, width int) {
	if width <= 1 {
		return
	}
	for off := 0; off+width <= len(b); off += width {
		e := b[off : off+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
	}
}

// --- order-aware read ---
func U16(o Order, b []byte) uint16 { return o.ByteOrder().Uint16(b) }
func U32(o Order, b []byte) uint32 { return o.ByteOrder().Uint32(b) }
func U64(o Order, b []byte) uint64 { return o.ByteOrder().Uint64(b) }
func I16(o Order, b []byte) int16  { return int16(U16(o, b)) }
func I32(o Order, b []byte) int32  { return int32(U32(o, b)) }
func I64(o Order, b []byte) int64  { return int64(U64(o, b)) }
func F32(o Order, b []byte) float32 {
	return math.Float32frombits(U32(o, b))
}
func F64(o Order, b []byte) float64 {
	return math.Float64frombits(U64(o, b))
}

// --- order-aware write ---
func PutU16(o Order, b []byte, v uint16) { o.ByteOrder().PutUint16(b, v) }
func PutU32(o Order, b []byte, v uint32) { o.ByteOrder().PutUint32(b, v) }
func PutU64(o Order, b []byte, v uint64) { o.ByteOrder().PutUint64(b, v) }
func PutF32(o Order, b []byte, v float32) {
	PutU32(o, b, math.Float32bits(v))
}
func PutF64(o Order, b []byte, v float64) {
	PutU64(o, b, math.Float64bits(v))
}

// --- BE (on-disk order) ---
func U32BE(b []byte) uint32       { return BE.Uint32(b) }
func U64BE(b []byte) uint64       { return BE.Uint64(b) }
func PutU32BE(b []byte, v uint32) { BE.PutUint32(b, v) }
func PutU64BE(b []byte, v uint64) { BE.PutUint64(b, v) }
