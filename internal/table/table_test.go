package table

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/checksum"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/header"
	"github.com/tuannm99/novafits/internal/storage"
)

// newScenario builds the two-column table used across tests:
// A int32 [1,2,3], B float32 arrays [[1.5],[2.5,3.5],[]], four rows.
func newScenario(t *testing.T) *Table {
	t.Helper()
	tb, err := New(Binary, []*column.Column{
		{Name: "A", Format: "J", Array: []int32{1, 2, 3}},
		{Name: "B", Format: "PE()", Array: [][]float32{{1.5}, {2.5, 3.5}, {}}},
	}, Options{Rows: 4})
	require.NoError(t, err)
	return tb
}

func writeAll(t *testing.T, tb *Table) ([]byte, *header.Header) {
	t.Helper()
	h := header.New()
	tb.SyncHeader(h)
	var buf bytes.Buffer
	n, err := tb.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes(), h
}

func TestNew_Scenario(t *testing.T) {
	tb := newScenario(t)

	assert.Equal(t, 4, tb.Rows())
	assert.Equal(t, 2, tb.NumFields())
	assert.Equal(t, 12, tb.RowLen())

	a, b := tb.Field(0), tb.Field(1)
	assert.Equal(t, []int64{1, 2, 3, 0}, []int64{a.Int(0), a.Int(1), a.Int(2), a.Int(3)})
	assert.Equal(t, []float64{1.5}, b.Value(0))
	assert.Equal(t, []float64{2.5, 3.5}, b.Value(1))
	assert.Empty(t, b.Value(2))
	assert.Empty(t, b.Value(3))

	// variable-length maximum follows the data
	assert.Equal(t, 2, tb.Columns().Format(1).Max)
	assert.Equal(t, "PE(2)", tb.Columns().TForm(1))
}

func TestNew_ColumnsRebound(t *testing.T) {
	src := []int32{1, 2}
	c := &column.Column{Name: "A", Format: "J", Array: src}
	tb, err := New(Binary, []*column.Column{c}, Options{})
	require.NoError(t, err)

	out := tb.Columns().Column(0)
	assert.NotSame(t, c, out)
	assert.Nil(t, out.Array)
	assert.Same(t, tb.Field(0), out.Bound())

	require.NoError(t, tb.Field(0).SetValue(0, 42))
	assert.Equal(t, int32(1), src[0])
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Binary, 42, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = New(Binary, []*column.Column{
		{Name: "FLUX", Format: "E"},
		{Name: "FLUX", Format: "E"},
	}, Options{})
	var dup *column.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, []string{"FLUX"}, dup.Names)

	_, err = New(Binary, []*column.Column{
		{Name: "V", Format: "2J", Array: [][]int32{{1, 2, 3}}},
	}, Options{})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(Binary, []*column.Column{
		{Name: "S", Format: "4A", Array: []int{1}},
	}, Options{})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNew_RowsFromLongestSource(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "A", Format: "J", Array: []int32{1}},
		{Name: "B", Format: "D", Array: []float64{1, 2, 3}},
		{Name: "C", Format: "E"},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, tb.Rows())
}

func TestNew_Fill(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "A", Format: "J", Array: []int32{7, 8}},
	}, Options{Fill: true})
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Rows())
	assert.Equal(t, int64(0), tb.Field(0).Int(0))
}

func TestNew_FillKeepsDeclaredMax(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "B", Format: "PE(5)"},
	}, Options{Rows: 3, Fill: true})
	require.NoError(t, err)
	assert.Equal(t, "PE(5)", tb.Columns().TForm(0))

	b := tb.Field(0)
	require.NoError(t, b.SetValue(0, []float32{1, 2, 3}))
	require.NoError(t, b.SetValue(1, []float32{4}))
	tb.RecordMax()
	assert.Equal(t, "PE(3)", tb.Columns().TForm(0))
	assert.Equal(t, 3, b.Format().Max)

	_, h := writeAll(t, tb)
	form, _ := h.String("TFORM1")
	assert.Equal(t, "PE(3)", form)
	pcount, _ := h.Int("PCOUNT")
	assert.Equal(t, int64(16), pcount)
}

func TestNew_Padding(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "U", Format: "I", Zero: 32768, Array: []int16{1}},
		{Name: "S", Format: "I", Scale: 2, Zero: 10, Array: []int16{1}},
		{Name: "F", Format: "2E", Zero: 1.5},
		{Name: "N", Format: "6A", Array: []string{"abc"}},
		{Name: "L", Format: "L", Array: []bool{true}},
	}, Options{Rows: 3})
	require.NoError(t, err)

	u, s, f := tb.Field(0), tb.Field(1), tb.Field(2)
	assert.Equal(t, int64(1), u.Int(0))
	assert.Equal(t, int64(-32768), u.Int(2))
	assert.Equal(t, 0.0, u.Scaled(2))
	assert.Equal(t, int64(-5), s.Int(1))
	assert.Equal(t, []float64{-1.5, -1.5}, f.Value(0))

	n := tb.Field(3)
	assert.Equal(t, "abc", n.String(0))
	assert.Equal(t, "", n.String(1))

	l := tb.Field(4)
	assert.True(t, l.Bool(0))
	assert.Equal(t, byte('T'), tb.Bytes()[l.Offset()])
	assert.False(t, l.Bool(1))
}

func TestNew_ASCIIPadding(t *testing.T) {
	tb, err := New(ASCII, []*column.Column{
		{Name: "ID", Format: "I5", Array: []int64{7}},
		{Name: "X", Format: "E12.4", Array: []float64{1.5}},
		{Name: "S", Format: "A4", Array: []string{"ab"}},
	}, Options{Rows: 2})
	require.NoError(t, err)

	rowLen := tb.RowLen()
	assert.Equal(t, 21, rowLen)
	assert.Equal(t, "    7  1.5000E+00ab  ", string(tb.Bytes()[:rowLen]))
	assert.Equal(t, bytes.Repeat([]byte{' '}, rowLen), tb.Bytes()[rowLen:])

	assert.Equal(t, int64(7), tb.Field(0).Value(0))
	assert.Equal(t, 1.5, tb.Field(1).Value(0))
	assert.Equal(t, "ab", tb.Field(2).Value(0))
	assert.Equal(t, int64(0), tb.Field(0).Value(1))
}

func TestNew_ASCIIOverflow(t *testing.T) {
	tb, err := New(ASCII, []*column.Column{
		{Name: "ID", Format: "I3", Array: []int64{12345}},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "***", string(tb.Bytes()))
}

func TestNew_MultiDimAndBits(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "M", Format: "4J", Dim: "(2,2)", Array: [][][]int32{{{1, 2}, {3, 4}}, {{5, 6}}}},
		{Name: "X", Format: "10X", Array: [][]bool{{true, false, true}}},
		{Name: "P", Format: "10X", Array: [][]byte{{0xFF, 0xC0}}},
	}, Options{})
	require.NoError(t, err)

	m := tb.Field(0)
	assert.Equal(t, []int64{1, 2, 3, 4}, m.Value(0))
	assert.Equal(t, []int64{5, 6, 0, 0}, m.Value(1))

	x := tb.Field(1)
	assert.Equal(t, []bool{true, false, true, false, false, false, false, false, false, false}, x.Bits(0))
	assert.Equal(t, byte(0xA0), tb.Bytes()[x.Offset()])

	p := tb.Field(2)
	for _, bit := range p.Bits(0) {
		assert.True(t, bit)
	}
	assert.Equal(t, make([]bool, 10), p.Bits(1))
}

func TestNew_FromTableCopies(t *testing.T) {
	tb := newScenario(t)
	cp, err := New(Binary, tb, Options{})
	require.NoError(t, err)

	require.NoError(t, cp.Field(0).SetValue(0, 99))
	require.NoError(t, cp.Field(1).SetValue(0, []float64{9, 9, 9}))

	assert.Equal(t, int64(1), tb.Field(0).Int(0))
	assert.Equal(t, []float64{1.5}, tb.Field(1).Value(0))
	assert.Equal(t, int64(99), cp.Field(0).Int(0))
	assert.Equal(t, 4, cp.Rows())
}

func TestNew_ConvertsKind(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "N", Format: "J", Array: []int32{5, -6}},
		{Name: "F", Format: "L", Array: []bool{true, false}},
	}, Options{})
	require.NoError(t, err)

	asc, err := New(ASCII, tb, Options{})
	require.NoError(t, err)
	assert.Equal(t, ASCII, asc.Kind())
	assert.Equal(t, int64(-6), asc.Field(0).Value(1))
	assert.Equal(t, "T", asc.Field(1).Value(0))
	assert.Equal(t, "F", asc.Field(1).Value(1))
}

func TestRoundTrip_Binary(t *testing.T) {
	tb, err := New(Binary, []*column.Column{
		{Name: "ID", Format: "K", Array: []int64{1, -2, 3}},
		{Name: "NAME", Format: "8A", Array: []string{"alpha", "b", ""}},
		{Name: "OK", Format: "L", Array: []bool{true, false, true}},
		{Name: "MASK", Format: "12X", Array: [][]bool{{true}, {false, true}, {}}},
		{Name: "Z", Format: "C", Array: []complex64{complex(1, -1), 2, 0}},
		{Name: "SPEC", Format: "PD()", Array: [][]float64{{1, 2, 3}, nil, {4}}},
		{Name: "TAGS", Format: "QA()", Array: []string{"x", "yz", ""}},
		{Name: "BYTES", Format: "3B", Array: [][]uint8{{1, 2, 3}, {4}, {}}},
	}, Options{})
	require.NoError(t, err)

	raw, h := writeAll(t, tb)
	back, err := Open(h, raw)
	require.NoError(t, err)
	require.Equal(t, tb.Rows(), back.Rows())
	require.Equal(t, tb.NumFields(), back.NumFields())

	for r := 0; r < tb.Rows(); r++ {
		assert.Equal(t, tb.Row(r), back.Row(r), "row %d", r)
		for i, f := range tb.Fields() {
			if f.Format().Kind == back.Field(i).Format().Kind && f.Array(r) != nil {
				assert.Equal(t, f.Array(r).Len(), back.Field(i).Array(r).Len())
			}
		}
	}
	for _, f := range back.Fields() {
		assert.Equal(t, bx.BigEndian, f.Order())
	}

	// a second write of the materialized table reproduces the bytes
	again, h2 := writeAll(t, back)
	assert.Equal(t, raw, again)
	pc1, _ := h.Int("PCOUNT")
	pc2, _ := h2.Int("PCOUNT")
	assert.Equal(t, pc1, pc2)
}

func TestWrite_RestoresByteOrder(t *testing.T) {
	tb := newScenario(t)
	a, b := tb.Field(0), tb.Field(1)
	arrays := append([]*Array(nil), b.Arrays()...)
	before := append([]byte(nil), tb.Bytes()...)
	arrBefore := append([]byte(nil), arrays[1].Bytes()...)

	_, _ = writeAll(t, tb)
	assert.Equal(t, bx.Native, a.Order())
	assert.Equal(t, bx.Native, arrays[1].Order())
	assert.Equal(t, arrBefore, arrays[1].Bytes())
	assert.Equal(t, int64(2), a.Int(1))

	// fail while the heap is being written
	_, err := tb.WriteTo(&failWriter{limit: len(before)})
	require.Error(t, err)

	assert.Equal(t, bx.Native, a.Order())
	for i, arr := range b.Arrays() {
		assert.Same(t, arrays[i], arr)
		if arr != nil {
			assert.Equal(t, bx.Native, arr.Order())
		}
	}
	assert.Equal(t, arrBefore, arrays[1].Bytes())
	assert.Equal(t, []float64{2.5, 3.5}, b.Value(1))
	assert.Equal(t, int64(3), a.Int(2))
}

type failWriter struct {
	limit int
	n     int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		return 0, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

func TestDatasum_Deterministic(t *testing.T) {
	tb := newScenario(t)
	before := append([]byte(nil), tb.Bytes()...)

	s1 := tb.Datasum()
	s2 := tb.Datasum()
	assert.Equal(t, s1, s2)
	assert.Equal(t, before, tb.Bytes())
	assert.Equal(t, bx.Native, tb.Field(0).Order())
	assert.Equal(t, bx.Native, tb.Field(1).Array(0).Order())

	raw, h := writeAll(t, tb)
	padded := append(raw, make([]byte, storage.PadLength(len(raw)))...)
	assert.Equal(t, checksum.Sum(padded, 0), s1.Sum)

	back, err := Open(h, raw)
	require.NoError(t, err)
	assert.Equal(t, s1, back.Datasum())
}

func TestDatasum_ASCII(t *testing.T) {
	tb, err := New(ASCII, []*column.Column{
		{Name: "S", Format: "A3", Array: []string{"abc"}},
	}, Options{})
	require.NoError(t, err)

	data := append([]byte("abc"), bytes.Repeat([]byte{' '}, storage.BlockSize-3)...)
	assert.Equal(t, checksum.NewResult(checksum.Sum(data, 0)), tb.Datasum())
}

func TestMaterialize_ASCII(t *testing.T) {
	h := header.New()
	h.Set("XTENSION", "TABLE")
	h.Set("NAXIS1", 17)
	h.Set("NAXIS2", 2)
	h.Set("TFIELDS", 3)
	h.Set("TTYPE1", "ID")
	h.Set("TFORM1", "I5")
	h.Set("TBCOL1", 1)
	h.Set("TTYPE2", "MAG")
	h.Set("TFORM2", "F7.3")
	h.Set("TBCOL2", 7)
	h.Set("TTYPE3", "NAME")
	h.Set("TFORM3", "A3")
	h.Set("TBCOL3", 15)

	raw := []byte("    1   2.500 abc   42 -10.250 xy ")
	tb, err := Open(h, raw)
	require.NoError(t, err)

	assert.Equal(t, ASCII, tb.Kind())
	assert.Equal(t, int64(1), tb.Field(0).Int(0))
	assert.Equal(t, int64(42), tb.Field(0).Value(1))
	assert.Equal(t, 2.5, tb.Field(1).Float(0))
	assert.Equal(t, -10.25, tb.Field(1).Value(1))
	assert.Equal(t, "xy", tb.Field(2).String(1))

	var buf bytes.Buffer
	_, err = tb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, raw, buf.Bytes())

	// zero copy: writes land in the caller's buffer
	require.NoError(t, tb.Field(2).SetValue(0, "zzz"))
	assert.Equal(t, "zzz", string(raw[14:17]))
}

func TestMaterialize_ASCIIDExponent(t *testing.T) {
	cs := column.MustNew(ASCII, &column.Column{Name: "D", Format: "D10.2"})
	tb, err := Materialize(cs, []byte("  1.25D+02"), Layout{NRows: 1})
	require.NoError(t, err)
	assert.Equal(t, 125.0, tb.Field(0).Float(0))

	require.NoError(t, tb.Field(0).SetValue(0, 2.5))
	assert.Equal(t, "  2.50D+00", string(tb.Bytes()))
}

func TestMaterialize_Gap(t *testing.T) {
	raw, h := writeAll(t, newScenario(t))
	fixed := 4 * 12

	withGap := append(append(append([]byte(nil), raw[:fixed]...), make([]byte, 8)...), raw[fixed:]...)
	h.Set("THEAP", fixed+8)
	h.Set("PCOUNT", len(raw)-fixed+8)

	assert.Equal(t, len(withGap), LayoutOf(h).Size())

	tb, err := Open(h, withGap)
	require.NoError(t, err)
	assert.Equal(t, 8, tb.Gap())
	assert.Equal(t, fixed+8, tb.HeapOffset())
	assert.Equal(t, len(raw)-fixed, tb.HeapSize())
	assert.Equal(t, []float64{2.5, 3.5}, tb.Field(1).Value(1))

	out := header.New()
	tb.SyncHeader(out)
	theap, _ := out.Int("THEAP")
	pcount, _ := out.Int("PCOUNT")
	assert.Equal(t, int64(fixed+8), theap)
	assert.Equal(t, int64(len(raw)-fixed+8), pcount)

	var buf bytes.Buffer
	_, err = tb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, withGap, buf.Bytes())
}

func TestMaterialize_NoHeapBytes(t *testing.T) {
	raw, h := writeAll(t, newScenario(t))
	h.Set("PCOUNT", 0)

	// descriptors point past an absent heap
	_, err := Open(h, raw[:48])
	assert.ErrorIs(t, err, ErrBadDescriptor)
}

func TestMaterialize_BadDescriptor(t *testing.T) {
	raw, h := writeAll(t, newScenario(t))
	// row 1, field B: offset word of the descriptor
	bx.PutU32BE(raw[12+4+4:], 0xFFFF)

	_, err := Open(h, raw)
	assert.ErrorIs(t, err, ErrBadDescriptor)
}

func TestMaterialize_ShortData(t *testing.T) {
	cs := column.MustNew(Binary, &column.Column{Name: "A", Format: "J"})
	_, err := Materialize(cs, make([]byte, 7), Layout{NRows: 2})
	assert.Error(t, err)

	_, err = Materialize(cs, make([]byte, 8), Layout{NRows: 2, RowLen: 5})
	assert.Error(t, err)
}

func TestSyncHeader(t *testing.T) {
	tb := newScenario(t)
	h := header.New()
	h.Set("EXTNAME", "EVENTS")
	h.Set("TTYPE7", "STALE")
	tb.SyncHeader(h)

	get := func(k string) int64 {
		v, ok := h.Int(k)
		require.True(t, ok, k)
		return v
	}
	assert.Equal(t, int64(12), get("NAXIS1"))
	assert.Equal(t, int64(4), get("NAXIS2"))
	assert.Equal(t, int64(2), get("TFIELDS"))
	assert.Equal(t, int64(12), get("PCOUNT"))
	assert.False(t, h.Has("THEAP"))
	assert.False(t, h.Has("TTYPE7"))

	form, _ := h.String("TFORM2")
	assert.Equal(t, "PE(2)", form)
	x, _ := h.String("XTENSION")
	assert.Equal(t, "BINTABLE", x)
}

func TestResize(t *testing.T) {
	tb := newScenario(t)
	a, b := tb.Field(0), tb.Field(1)

	require.NoError(t, tb.Resize(6))
	assert.Equal(t, 6, tb.Rows())
	assert.Equal(t, int64(3), tb.Field(0).Int(2))
	assert.Equal(t, int64(0), tb.Field(0).Int(5))
	assert.Empty(t, tb.Field(1).Value(5))
	assert.Equal(t, []float64{2.5, 3.5}, tb.Field(1).Value(1))
	assert.Same(t, tb.Field(0), tb.Columns().Column(0).Bound())
	assert.NotSame(t, a, tb.Field(0))
	_ = b

	require.NoError(t, tb.Resize(1))
	assert.Equal(t, 1, tb.Rows())
	assert.Equal(t, 1, tb.Field(0).Len())
	assert.Error(t, tb.Resize(-1))
}

func TestAddColumn(t *testing.T) {
	tb := newScenario(t)
	require.NoError(t, tb.AddColumn(&column.Column{Name: "C", Format: "D", Array: []float64{0.5}}))

	assert.Equal(t, 3, tb.NumFields())
	assert.Equal(t, 20, tb.RowLen())
	assert.Equal(t, 0.5, tb.Field(2).Float(0))
	assert.Equal(t, 0.0, tb.Field(2).Float(3))
	assert.Equal(t, int64(3), tb.Field(0).Int(2))
	assert.Equal(t, []float64{2.5, 3.5}, tb.Field(1).Value(1))

	f, err := tb.FieldByName("c")
	require.NoError(t, err)
	assert.Same(t, tb.Field(2), f)

	err = tb.AddColumn(&column.Column{Name: "A", Format: "J"})
	var dup *column.DuplicateNameError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, 3, tb.NumFields())

	_, err = tb.FieldByName("nope")
	assert.ErrorIs(t, err, ErrNoField)
}

func TestField_SetValueErrors(t *testing.T) {
	tb := newScenario(t)
	assert.ErrorIs(t, tb.Field(0).SetValue(9, 1), ErrShapeMismatch)
	assert.ErrorIs(t, tb.Field(0).SetValue(0, "x"), ErrTypeMismatch)
	assert.ErrorIs(t, tb.Field(1).SetValue(0, "x"), ErrTypeMismatch)
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, Binary, CodecFor(Binary).Kind())
	assert.Equal(t, ASCII, CodecFor(ASCII).Kind())
}
