package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/format"
)

// Field is the view of one column inside a table's storage. It never owns
// the fixed-region bytes; variable-length fields hold one Array per row.
type Field struct {
	t      *Table
	index  int
	col    *column.Column
	format format.Format
	offset int
	width  int
	order  bx.Order
	vla    []*Array
}

// Len is the row count, so a Field satisfies column.Binding.
func (f *Field) Len() int { return f.t.nrows }

func (f *Field) Index() int { return f.index }

func (f *Field) Name() string { return f.col.Name }

func (f *Field) Column() *column.Column { return f.col }

func (f *Field) Format() format.Format { return f.format }

// Order is the byte order the fixed-region cells are stored in.
func (f *Field) Order() bx.Order { return f.order }

func (f *Field) Offset() int { return f.offset }

func (f *Field) Width() int { return f.width }

func (f *Field) isASCII() bool { return f.t.kind == ASCII }

func (f *Field) isVarLen() bool { return f.format.Kind == format.VarLen }

func (f *Field) checkRow(row int) error {
	if row < 0 || row >= f.t.nrows {
		return fmt.Errorf("%w: row %d of %d", ErrShapeMismatch, row, f.t.nrows)
	}
	return nil
}

func (f *Field) cell(row int) []byte {
	off := row*f.t.RowLen() + f.offset
	return f.t.data[off : off+f.width]
}

// Value returns the decoded cell of row. Scalars come back as bool, int64,
// float64, complex128 or string; repeated elements, bit arrays and
// variable-length cells as []bool, []int64, []float64 or []complex128.
// Character arrays come back as a string.
func (f *Field) Value(row int) any {
	if f.isASCII() {
		return f.text(row)
	}
	switch f.format.Kind {
	case format.BitArray:
		return f.Bits(row)
	case format.VarLen:
		a := f.Array(row)
		if a.code == format.Char {
			return strings.TrimRight(a.Values().(string), "\x00")
		}
		return a.Values()
	}
	if f.format.Code == format.Char {
		return f.String(row)
	}
	cell := f.cell(row)
	if f.format.Repeat == 1 {
		return getElem(f.format.Code, f.order, cell)
	}
	return decode(f.format.Code, f.order, cell, f.format.Repeat)
}

// elem is the first element of the cell.
func (f *Field) elem(row int) any {
	if f.isASCII() || f.format.Kind != format.Scalar || f.format.Code == format.Char {
		return f.Value(row)
	}
	return getElem(f.format.Code, f.order, f.cell(row))
}

func (f *Field) Int(row int) int64 {
	n, _ := asInt64(f.elem(row))
	return n
}

func (f *Field) Float(row int) float64 {
	x, _ := asFloat64(f.elem(row))
	return x
}

// Scaled is the physical value raw*scale + zero of the first element.
func (f *Field) Scaled(row int) float64 {
	return f.Float(row)*f.col.ScaleFactor() + f.col.Zero
}

func (f *Field) Complex(row int) complex128 {
	c, _ := asComplex(f.elem(row))
	return c
}

func (f *Field) Bool(row int) bool {
	b, _ := asBool(f.elem(row))
	return b
}

// String returns character cells with trailing NULs and blanks removed,
// and the formatted value of any other cell.
func (f *Field) String(row int) string {
	switch {
	case f.isASCII() && f.format.Code == format.Char:
		return strings.TrimRight(string(f.cell(row)), " ")
	case f.isASCII():
		return strings.TrimSpace(string(f.cell(row)))
	case f.format.Kind == format.Scalar && f.format.Code == format.Char:
		s := string(f.cell(row))
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		return strings.TrimRight(s, " ")
	}
	return fmt.Sprint(f.Value(row))
}

// Bits unpacks a bit array cell.
func (f *Field) Bits(row int) []bool {
	if f.format.Kind != format.BitArray {
		return nil
	}
	return unpackBits(f.cell(row), f.format.Repeat)
}

// Array returns the variable-length array of row, never nil for a
// variable-length field.
func (f *Field) Array(row int) *Array {
	if !f.isVarLen() {
		return nil
	}
	if a := f.vla[row]; a != nil {
		return a
	}
	return &Array{code: f.format.Code, order: bx.BigEndian}
}

// Arrays exposes the per-row arrays; nil entries are empty rows.
func (f *Field) Arrays() []*Array { return f.vla }

// SetValue stores v into row. Nested slices are flattened into the leading
// elements of the cell; more values than the cell holds is an error.
func (f *Field) SetValue(row int, v any) error {
	if err := f.checkRow(row); err != nil {
		return err
	}
	if f.isASCII() {
		return f.setText(row, v)
	}
	cell := f.cell(row)
	switch f.format.Kind {
	case format.BitArray:
		return f.setBits(cell, v)
	case format.VarLen:
		return f.setArray(row, v)
	}
	if f.format.Code == format.Char {
		return setChars(cell, v)
	}
	elems := flatten(v)
	if len(elems) > f.format.Repeat {
		return fmt.Errorf("%w: %d values into %s field %q",
			ErrShapeMismatch, len(elems), f.format.TForm(), f.Name())
	}
	w := f.format.Code.Width()
	for i, e := range elems {
		if err := putElem(f.format.Code, f.order, cell[i*w:(i+1)*w], e); err != nil {
			return fmt.Errorf("field %q: %w", f.Name(), err)
		}
	}
	return nil
}

func setChars(cell []byte, v any) error {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return fmt.Errorf("%w: %T into character field", ErrTypeMismatch, v)
	}
	clear(cell)
	copy(cell, s)
	return nil
}

func (f *Field) setBits(cell []byte, v any) error {
	elems := flatten(v)
	if raw, ok := v.([]byte); ok && len(elems) != f.format.Repeat && len(raw) == len(cell) {
		// already packed
		copy(cell, raw)
		return nil
	}
	if len(elems) > f.format.Repeat {
		return fmt.Errorf("%w: %d bits into %s field %q",
			ErrShapeMismatch, len(elems), f.format.TForm(), f.Name())
	}
	bits := make([]bool, len(elems))
	for i, e := range elems {
		b, ok := asBool(e)
		if !ok {
			return fmt.Errorf("%w: %T into bit field %q", ErrTypeMismatch, e, f.Name())
		}
		bits[i] = b
	}
	packBits(cell, bits)
	return nil
}

func (f *Field) setArray(row int, v any) error {
	code := f.format.Code
	var a *Array
	switch x := v.(type) {
	case nil:
	case *Array:
		if x.code == code {
			a = x.Clone()
			break
		}
		a = NewArray(code, x.Len())
		for i := 0; i < x.Len(); i++ {
			if err := a.Set(i, x.Value(i)); err != nil {
				return fmt.Errorf("field %q: %w", f.Name(), err)
			}
		}
	case string:
		if code != format.Char {
			return fmt.Errorf("%w: string into %s field %q", ErrTypeMismatch, f.format.TForm(), f.Name())
		}
		a = &Array{code: code, data: []byte(x), order: bx.Native}
	default:
		elems := flatten(v)
		a = NewArray(code, len(elems))
		for i, e := range elems {
			if err := a.Set(i, e); err != nil {
				return fmt.Errorf("field %q: %w", f.Name(), err)
			}
		}
	}
	f.vla[row] = a
	return nil
}

// pad fills row with the null-equivalent value: -zero/scale for binary
// numbers, empty for strings, bits and arrays, blanks for ASCII.
func (f *Field) pad(row int) {
	cell := f.cell(row)
	if f.isASCII() {
		for i := range cell {
			cell[i] = ' '
		}
		return
	}
	clear(cell)
	switch {
	case f.isVarLen():
		f.vla[row] = nil
		return
	case f.format.Kind == format.BitArray, f.format.Code == format.Char, f.format.Code == format.Logical:
		return
	}
	raw := -f.col.Zero / f.col.ScaleFactor()
	if raw == 0 {
		return
	}
	w := f.format.Code.Width()
	for i := 0; i < f.format.Repeat; i++ {
		_ = putElem(f.format.Code, f.order, cell[i*w:(i+1)*w], raw)
	}
}

// needsSwap reports whether the fixed-region cells are not yet in disk
// order. Variable-length descriptors are always kept big-endian.
func (f *Field) needsSwap() bool {
	return !f.isASCII() && f.format.Kind == format.Scalar &&
		f.order != bx.BigEndian && f.format.SwapWidth() > 1
}

// flip swaps every cell of the field in place and retags the order.
func (f *Field) flip() {
	w := f.format.SwapWidth()
	for r := 0; r < f.t.nrows; r++ {
		bx.Swap(f.cell(r), w)
	}
	f.order = f.order.Swapped()
}

// ---- ASCII cells ----

func (f *Field) text(row int) any {
	s := f.String(row)
	switch {
	case f.format.Code == format.Char:
		return s
	case f.format.Code == format.Int16:
		if s == "" {
			return int64(0)
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		x, _ := parseFloatText(s)
		return int64(x)
	default:
		if s == "" {
			return float64(0)
		}
		x, _ := parseFloatText(s)
		return x
	}
}

var fortranExp = strings.NewReplacer("D", "E", "d", "e")

func parseFloatText(s string) (float64, error) {
	return strconv.ParseFloat(fortranExp.Replace(strings.TrimSpace(s)), 64)
}

func (f *Field) setText(row int, v any) error {
	s, err := formatText(f.format, v)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.Name(), err)
	}
	cell := f.cell(row)
	for i := range cell {
		cell[i] = ' '
	}
	copy(cell, s)
	return nil
}

// formatText renders v in an ASCII field format. Numbers are right
// justified; values too wide for the field become asterisks.
func formatText(fm format.Format, v any) (string, error) {
	w := fm.Width
	var s string
	switch fm.Code {
	case format.Char:
		switch x := v.(type) {
		case string:
			s = x
		case []byte:
			s = string(x)
		case bool:
			s = "F"
			if x {
				s = "T"
			}
		default:
			return "", fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, fm.TForm())
		}
		if len(s) > w {
			s = s[:w]
		}
		return s, nil
	case format.Int16:
		n, ok := asInt64(v)
		if !ok {
			return "", fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, fm.TForm())
		}
		s = fmt.Sprintf("%*d", w, n)
	default:
		x, ok := asFloat64(v)
		if !ok {
			return "", fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, fm.TForm())
		}
		switch fm.Code {
		case format.Fixed:
			s = fmt.Sprintf("%*.*f", w, fm.Prec, x)
		case format.Float64:
			s = strings.Replace(fmt.Sprintf("%*.*E", w, fm.Prec, x), "E", "D", 1)
		default:
			s = fmt.Sprintf("%*.*E", w, fm.Prec, x)
		}
	}
	if len(s) > w {
		s = strings.Repeat("*", w)
	}
	return s, nil
}
