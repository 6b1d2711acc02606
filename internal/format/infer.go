package format

import (
	"math"
	"strconv"
	"strings"
)

// rank orders formats from narrowest to widest for inference.
func rank(f Format) int {
	switch f.Code {
	case Logical:
		return 1
	case Byte:
		return 2
	case Int16:
		return 3
	case Int32:
		return 4
	case Int64:
		return 5
	case Float64:
		return 6
	case Complex128:
		return 7
	case Char:
		return 8
	default:
		return 0
	}
}

// Infer picks the narrowest scalar format that can hold the text token.
func Infer(token string) Format {
	s := strings.TrimSpace(token)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case n == 0 || n == 1:
			return Format{Kind: Scalar, Code: Logical, Repeat: 1}
		case n > 0 && n <= math.MaxUint8:
			return Format{Kind: Scalar, Code: Byte, Repeat: 1}
		case n >= math.MinInt16 && n <= math.MaxInt16:
			return Format{Kind: Scalar, Code: Int16, Repeat: 1}
		case n >= math.MinInt32 && n <= math.MaxInt32:
			return Format{Kind: Scalar, Code: Int32, Repeat: 1}
		default:
			return Format{Kind: Scalar, Code: Int64, Repeat: 1}
		}
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return Format{Kind: Scalar, Code: Float64, Repeat: 1}
	}
	if _, err := ParseComplex(s); err == nil {
		return Format{Kind: Scalar, Code: Complex128, Repeat: 1}
	}
	return Format{Kind: Scalar, Code: Char, Repeat: max(len(token), 1)}
}

// Widen returns the format able to hold values of both a and b. A zero
// Format acts as the identity. Incompatible pairs resolve to the wider
// rank; character fields keep the widest width seen.
func Widen(a, b Format) Format {
	if a.Kind == 0 {
		return b
	}
	if b.Kind == 0 {
		return a
	}
	if a.Code == Char && b.Code == Char {
		if b.Repeat > a.Repeat {
			return b
		}
		return a
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// ParseComplex parses "re+imj" (or the Go "i" suffix) into a complex128.
func ParseComplex(s string) (complex128, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "j") {
		s = strings.TrimSuffix(s, "j") + "i"
	}
	if !strings.HasSuffix(s, "i") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseComplex(s, 128)
}
