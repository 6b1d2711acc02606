// Package format models the storage format of a table field.
//
// A binary table field is one of three shapes: a scalar element type
// repeated a fixed number of times, a packed bit array (code X), or a
// variable-length array (code P or Q) whose row cell is a heap descriptor.
// ASCII table fields are fixed-width character fields (Aw, Iw, Fw.d, Ew.d,
// Dw.d).
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrBadFormat = errors.New("format: malformed format descriptor")

// Code is a single-letter field type code.
type Code byte

const (
	Logical    Code = 'L'
	Bit        Code = 'X'
	Byte       Code = 'B'
	Int16      Code = 'I'
	Int32      Code = 'J'
	Int64      Code = 'K'
	Char       Code = 'A'
	Float32    Code = 'E'
	Float64    Code = 'D'
	Complex64  Code = 'C'
	Complex128 Code = 'M'
	Pointer32  Code = 'P'
	Pointer64  Code = 'Q'

	// ASCII-only fixed decimal.
	Fixed Code = 'F'
)

// Width is the byte width of a single element of this code in a binary row.
// Bit and unknown codes report 0.
func (c Code) Width() int {
	switch c {
	case Logical, Byte, Char:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64, Complex64, Pointer32:
		return 8
	case Complex128, Pointer64:
		return 16
	default:
		return 0
	}
}

// SwapWidth is the size of the unit that flips under a byte-order change.
func (c Code) SwapWidth() int {
	switch c {
	case Complex64, Pointer32:
		return 4
	case Complex128, Pointer64:
		return 8
	default:
		return c.Width()
	}
}

func (c Code) IsInteger() bool {
	return c == Byte || c == Int16 || c == Int32 || c == Int64
}

func (c Code) IsFloat() bool { return c == Float32 || c == Float64 || c == Fixed }

func (c Code) IsComplex() bool { return c == Complex64 || c == Complex128 }

func (c Code) String() string { return string(rune(c)) }

func validElement(c Code) bool {
	switch c {
	case Logical, Byte, Int16, Int32, Int64, Char, Float32, Float64, Complex64, Complex128:
		return true
	}
	return false
}

// Kind selects which variant of Format is populated.
type Kind uint8

const (
	Scalar Kind = iota + 1
	BitArray
	VarLen
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case BitArray:
		return "bits"
	case VarLen:
		return "varlen"
	default:
		return "unknown"
	}
}

// Format is the parsed storage format of one field.
type Format struct {
	Kind Kind
	// Element type. For VarLen this is the heap element type.
	Code Code
	// Element count for Scalar (character width for Char), bit count for
	// BitArray, 1 for VarLen.
	Repeat int
	// VarLen only: largest row length, and whether descriptors are 64-bit.
	Max  int
	Long bool

	// ASCII table fields.
	ASCII bool
	Width int
	Prec  int
}

// ByteWidth is the number of bytes the field occupies in a row.
func (f Format) ByteWidth() int {
	if f.ASCII {
		return f.Width
	}
	switch f.Kind {
	case BitArray:
		return (f.Repeat + 7) / 8
	case VarLen:
		if f.Long {
			return Pointer64.Width()
		}
		return Pointer32.Width()
	default:
		return f.Repeat * f.Code.Width()
	}
}

// SwapWidth is the width of the unit byte-swapped in the row cell.
func (f Format) SwapWidth() int {
	if f.ASCII {
		return 1
	}
	switch f.Kind {
	case BitArray:
		return 1
	case VarLen:
		if f.Long {
			return Pointer64.SwapWidth()
		}
		return Pointer32.SwapWidth()
	default:
		return f.Code.SwapWidth()
	}
}

// Elements is the number of scalar elements in a row cell.
func (f Format) Elements() int {
	switch {
	case f.ASCII:
		return 1
	case f.Kind == Scalar && f.Code == Char:
		return 1
	case f.Kind == VarLen:
		return 0
	default:
		return f.Repeat
	}
}

// TForm renders the header text for the format.
func (f Format) TForm() string {
	if f.ASCII {
		if f.Code == Char || f.Code == Int16 || f.Code == Int32 {
			return fmt.Sprintf("%c%d", f.Code, f.Width)
		}
		return fmt.Sprintf("%c%d.%d", f.Code, f.Width, f.Prec)
	}
	switch f.Kind {
	case BitArray:
		return strconv.Itoa(f.Repeat) + "X"
	case VarLen:
		p := Pointer32
		if f.Long {
			p = Pointer64
		}
		return fmt.Sprintf("%c%c(%d)", p, f.Code, f.Max)
	default:
		if f.Repeat == 1 {
			return f.Code.String()
		}
		return strconv.Itoa(f.Repeat) + f.Code.String()
	}
}

func (f Format) String() string { return f.TForm() }

// Triple is the tokenized form of a binary TFORM value.
type Triple struct {
	Repeat int
	Code   Code
	Option string
}

var tformRE = regexp.MustCompile(`^([0-9]*)([LXBIJKAEDCMPQ])(.*)$`)

// ParseTForm tokenizes a binary table format string.
func ParseTForm(s string) (Triple, error) {
	m := tformRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Triple{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	repeat := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Triple{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
		}
		repeat = n
	}
	return Triple{Repeat: repeat, Code: Code(m[2][0]), Option: m[3]}, nil
}

var vlaOptionRE = regexp.MustCompile(`^([LBIJKAEDCM])(?:\((\d*)\))?$`)

// Parse parses a binary table format string.
func Parse(s string) (Format, error) {
	tr, err := ParseTForm(s)
	if err != nil {
		return Format{}, err
	}
	switch tr.Code {
	case Bit:
		return Format{Kind: BitArray, Code: Bit, Repeat: tr.Repeat}, nil
	case Pointer32, Pointer64:
		if tr.Repeat > 1 {
			return Format{}, fmt.Errorf("%w: %q: repeat must be 0 or 1", ErrBadFormat, s)
		}
		m := vlaOptionRE.FindStringSubmatch(tr.Option)
		if m == nil {
			return Format{}, fmt.Errorf("%w: %q: bad array element", ErrBadFormat, s)
		}
		f := Format{Kind: VarLen, Code: Code(m[1][0]), Repeat: 1, Long: tr.Code == Pointer64}
		if m[2] != "" {
			f.Max, _ = strconv.Atoi(m[2])
		}
		return f, nil
	default:
		if tr.Option != "" && tr.Code != Char {
			return Format{}, fmt.Errorf("%w: %q: unexpected option", ErrBadFormat, s)
		}
		if !validElement(tr.Code) {
			return Format{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
		}
		return Format{Kind: Scalar, Code: tr.Code, Repeat: tr.Repeat}, nil
	}
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Format {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

var asciiRE = regexp.MustCompile(`^([ADEFIJ])(\d+)(?:\.(\d+))?$`)

// ParseASCII parses an ASCII table format (Aw, Iw, Fw.d, Ew.d, Dw.d).
func ParseASCII(s string) (Format, error) {
	m := asciiRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Format{}, fmt.Errorf("%w: ascii %q", ErrBadFormat, s)
	}
	w, _ := strconv.Atoi(m[2])
	if w == 0 {
		return Format{}, fmt.Errorf("%w: ascii %q: zero width", ErrBadFormat, s)
	}
	code := Code(m[1][0])
	if code == Int32 {
		code = Int16
	}
	f := Format{Kind: Scalar, Code: code, Repeat: 1, ASCII: true, Width: w}
	if m[3] != "" {
		f.Prec, _ = strconv.Atoi(m[3])
	}
	return f, nil
}

// ToASCII maps a binary scalar format onto the default ASCII field that
// can hold it.
func ToASCII(f Format) (Format, error) {
	if f.ASCII {
		return f, nil
	}
	if f.Kind != Scalar {
		return Format{}, fmt.Errorf("%w: %s has no ascii form", ErrBadFormat, f.TForm())
	}
	out := Format{Kind: Scalar, Repeat: 1, ASCII: true}
	switch f.Code {
	case Char:
		out.Code, out.Width = Char, f.Repeat
	case Logical:
		out.Code, out.Width = Char, 1
	case Byte:
		out.Code, out.Width = Int16, 4
	case Int16:
		out.Code, out.Width = Int16, 6
	case Int32:
		out.Code, out.Width = Int16, 11
	case Int64:
		out.Code, out.Width = Int16, 20
	case Float32:
		out.Code, out.Width, out.Prec = Float32, 15, 7
	case Float64:
		out.Code, out.Width, out.Prec = Float64, 25, 17
	default:
		return Format{}, fmt.Errorf("%w: %s has no ascii form", ErrBadFormat, f.TForm())
	}
	if f.Repeat != 1 && f.Code != Char {
		return Format{}, fmt.Errorf("%w: %s: ascii fields hold one element", ErrBadFormat, f.TForm())
	}
	return out, nil
}

// FromASCII maps an ASCII field onto the binary format holding the same
// values. Binary formats are returned unchanged.
func FromASCII(f Format) Format {
	if !f.ASCII {
		return f
	}
	switch f.Code {
	case Char:
		return Format{Kind: Scalar, Code: Char, Repeat: f.Width}
	case Int16:
		if f.Width > 9 {
			return Format{Kind: Scalar, Code: Int64, Repeat: 1}
		}
		return Format{Kind: Scalar, Code: Int32, Repeat: 1}
	case Float32:
		return Format{Kind: Scalar, Code: Float32, Repeat: 1}
	default:
		return Format{Kind: Scalar, Code: Float64, Repeat: 1}
	}
}

// Canonical returns original when it means the same as the format's own
// rendering, so textual variants such as "1X" or "1J" survive a rewrite.
func Canonical(f Format, original string) string {
	gen := f.TForm()
	if original == "" || f.ASCII {
		return gen
	}
	a, err1 := ParseTForm(original)
	b, err2 := ParseTForm(gen)
	if err1 == nil && err2 == nil && a == b {
		return original
	}
	return gen
}
