// Package table maps the fixed-width rows and heap of a table extension
// onto an in-memory table and back.
//
// The canonical on-disk byte order is big-endian. Tables read from disk
// keep that order; tables built in memory use the native order. Every
// binary field and every variable-length row array records the order it
// is currently stored in, and the writer and checksum normalize it.
package table

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/format"
)

var (
	ErrUnsupportedInput = errors.New("table: unsupported builder input")
	ErrShapeMismatch    = errors.New("table: value shape does not fit field")
	ErrBadDescriptor    = errors.New("table: bad heap descriptor")
	ErrTypeMismatch     = errors.New("table: value type does not match field")
	ErrNoField          = errors.New("table: no such field")
)

// Kind selects the binary or the ASCII codec.
type Kind = column.Kind

const (
	Binary = column.Binary
	ASCII  = column.ASCII
)

// Table is a row-structured view over a fixed-width byte region plus, for
// binary tables, per-row variable-length arrays.
type Table struct {
	kind  Kind
	cols  *column.ColumnSet
	data  []byte
	nrows int

	fields []*Field

	// heap layout as last read or written
	gap      int
	heapSize int
}

func (t *Table) Kind() Kind { return t.kind }

// Columns is the column set the table was laid out from.
func (t *Table) Columns() *column.ColumnSet { return t.cols }

// Rows is the row count (NAXIS2).
func (t *Table) Rows() int { return t.nrows }

// RowLen is the row width in bytes (NAXIS1).
func (t *Table) RowLen() int { return t.cols.RowLen() }

// Bytes is the fixed region in its current in-memory byte order.
func (t *Table) Bytes() []byte { return t.data }

// HeapOffset is the heap start relative to the data start (THEAP).
func (t *Table) HeapOffset() int { return len(t.data) + t.gap }

// HeapSize is the heap byte length, excluding the gap.
func (t *Table) HeapSize() int { return t.heapSize }

// Gap is the padding between the fixed region and the heap.
func (t *Table) Gap() int { return t.gap }

// NumFields is the public field count; phantoms are not fields.
func (t *Table) NumFields() int { return len(t.fields) }

func (t *Table) Field(i int) *Field { return t.fields[i] }

func (t *Table) Fields() []*Field { return append([]*Field(nil), t.fields...) }

// FieldByName finds a field by exact, then case-insensitive, name.
func (t *Table) FieldByName(name string) (*Field, error) {
	i := t.cols.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoField, name)
	}
	return t.fields[i], nil
}

// Row returns every field value of row r.
func (t *Table) Row(r int) []any {
	out := make([]any, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Value(r)
	}
	return out
}

// HasHeap reports whether any field is variable length.
func (t *Table) HasHeap() bool {
	for _, f := range t.fields {
		if f.format.Kind == format.VarLen {
			return true
		}
	}
	return false
}

// bind creates the field views over the current storage and rebinds every
// column to them. It runs whenever the storage is replaced.
func (t *Table) bind(order bx.Order) {
	old := t.fields
	t.fields = make([]*Field, t.cols.Len())
	for i := range t.fields {
		f := &Field{
			t:      t,
			index:  i,
			col:    t.cols.Column(i),
			format: t.cols.Format(i),
			offset: t.cols.Offset(i),
			width:  t.cols.Width(i),
		}
		f.order = order
		if f.format.Kind == format.VarLen {
			f.order = bx.BigEndian
		}
		if i < len(old) && old[i].col == f.col {
			f.order = old[i].order
			f.vla = old[i].vla
		}
		if f.format.Kind == format.VarLen && len(f.vla) != t.nrows {
			vla := make([]*Array, t.nrows)
			copy(vla, f.vla)
			f.vla = vla
		}
		f.col.Bind(f)
		t.fields[i] = f
	}
}

// Resize changes the row count. New rows are padded the way the builder
// pads rows it has no data for.
func (t *Table) Resize(rows int) error {
	if rows < 0 {
		return fmt.Errorf("table: negative row count %d", rows)
	}
	if rows == t.nrows {
		return nil
	}
	pad := byte(0)
	if t.kind == ASCII {
		pad = ' '
	}
	rowLen := t.RowLen()
	data := make([]byte, rows*rowLen)
	n := copy(data, t.data)
	for i := n; i < len(data); i++ {
		data[i] = pad
	}
	prev := t.nrows
	t.data, t.nrows = data, rows
	t.bind(bx.Native)
	for _, f := range t.fields {
		for r := prev; r < rows; r++ {
			f.pad(r)
		}
	}
	return nil
}

// AddColumn appends a column and rebuilds the storage. The new field takes
// its values from c.Array, padded like the builder does.
func (t *Table) AddColumn(c *column.Column) error {
	cs := t.cols.Copy()
	if err := cs.Add(c.Clone()); err != nil {
		return err
	}
	nt, err := build(t.kind, cs, t.nrows, false)
	if err != nil {
		return err
	}
	nt.gap = t.gap
	t.replace(nt)
	return nil
}

// Copy returns an independent table holding the same values.
func (t *Table) Copy() (*Table, error) {
	nt, err := New(t.kind, t, Options{Rows: t.nrows})
	if err != nil {
		return nil, err
	}
	return nt, nil
}

// replace swaps in the storage of nt and rebinds this table's columns.
func (t *Table) replace(nt *Table) {
	t.cols, t.data, t.nrows = nt.cols, nt.data, nt.nrows
	t.fields = nt.fields
	for _, f := range t.fields {
		f.t = t
		f.col.Bind(f)
	}
	t.heapSize = nt.heapSize
}
