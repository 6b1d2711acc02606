package table

import (
	"fmt"
	"math"
	"reflect"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/format"
)

// ---- small helpers to accept multiple source types on store ----

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case float64:
		return int64(math.Round(x)), true
	case float32:
		return int64(math.Round(float64(x))), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if n, ok := asInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

func asComplex(v any) (complex128, bool) {
	switch x := v.(type) {
	case complex128:
		return x, true
	case complex64:
		return complex128(x), true
	case string:
		c, err := format.ParseComplex(x)
		return c, err == nil
	}
	if f, ok := asFloat64(v); ok {
		return complex(f, 0), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch x {
		case "T", "1":
			return true, true
		case "F", "0":
			return false, true
		}
		return false, false
	}
	if n, ok := asInt64(v); ok {
		return n != 0, true
	}
	return false, false
}

// flatten unrolls nested slices and arrays, row-major. Strings and scalars
// are single elements.
func flatten(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, flatten(rv.Index(i).Interface())...)
	}
	return out
}

// getElem decodes one element of type code stored in order o.
func getElem(code format.Code, o bx.Order, b []byte) any {
	switch code {
	case format.Logical:
		return b[0] == 'T'
	case format.Byte:
		return int64(b[0])
	case format.Int16:
		return int64(bx.I16(o, b))
	case format.Int32:
		return int64(bx.I32(o, b))
	case format.Int64:
		return bx.I64(o, b)
	case format.Char:
		return string(b[:1])
	case format.Float32:
		return float64(bx.F32(o, b))
	case format.Float64:
		return bx.F64(o, b)
	case format.Complex64:
		return complex(float64(bx.F32(o, b[0:4])), float64(bx.F32(o, b[4:8])))
	case format.Complex128:
		return complex(bx.F64(o, b[0:8]), bx.F64(o, b[8:16]))
	}
	return nil
}

// putElem encodes v as one element of type code in order o.
func putElem(code format.Code, o bx.Order, b []byte, v any) error {
	switch code {
	case format.Logical:
		t, ok := asBool(v)
		if !ok {
			break
		}
		b[0] = 'F'
		if t {
			b[0] = 'T'
		}
		return nil
	case format.Char:
		switch x := v.(type) {
		case string:
			b[0] = 0
			if len(x) > 0 {
				b[0] = x[0]
			}
			return nil
		case byte:
			b[0] = x
			return nil
		}
	case format.Byte, format.Int16, format.Int32, format.Int64:
		n, ok := asInt64(v)
		if !ok {
			break
		}
		switch code {
		case format.Byte:
			b[0] = byte(n)
		case format.Int16:
			bx.PutU16(o, b, uint16(n))
		case format.Int32:
			bx.PutU32(o, b, uint32(n))
		default:
			bx.PutU64(o, b, uint64(n))
		}
		return nil
	case format.Float32, format.Float64:
		f, ok := asFloat64(v)
		if !ok {
			break
		}
		if code == format.Float32 {
			bx.PutF32(o, b, float32(f))
		} else {
			bx.PutF64(o, b, f)
		}
		return nil
	case format.Complex64, format.Complex128:
		c, ok := asComplex(v)
		if !ok {
			break
		}
		if code == format.Complex64 {
			bx.PutF32(o, b[0:4], float32(real(c)))
			bx.PutF32(o, b[4:8], float32(imag(c)))
		} else {
			bx.PutF64(o, b[0:8], real(c))
			bx.PutF64(o, b[8:16], imag(c))
		}
		return nil
	}
	return fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, code)
}

// decode reads n elements of type code into a typed slice: []bool,
// []int64, []float64 or []complex128. Characters decode to a string.
func decode(code format.Code, o bx.Order, b []byte, n int) any {
	w := code.Width()
	switch {
	case code == format.Char:
		return string(b[:n])
	case code == format.Logical:
		out := make([]bool, n)
		for i := range out {
			out[i] = b[i] == 'T'
		}
		return out
	case code.IsInteger():
		out := make([]int64, n)
		for i := range out {
			out[i] = getElem(code, o, b[i*w:]).(int64)
		}
		return out
	case code.IsComplex():
		out := make([]complex128, n)
		for i := range out {
			out[i] = getElem(code, o, b[i*w:]).(complex128)
		}
		return out
	default:
		out := make([]float64, n)
		for i := range out {
			out[i] = getElem(code, o, b[i*w:]).(float64)
		}
		return out
	}
}

// packBits stores bits MSB first.
func packBits(dst []byte, bits []bool) {
	clear(dst)
	for i, on := range bits {
		if on {
			dst[i/8] |= 0x80 >> (i % 8)
		}
	}
}

func unpackBits(src []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = src[i/8]&(0x80>>(i%8)) != 0
	}
	return out
}
