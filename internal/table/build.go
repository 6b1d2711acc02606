package table

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/column"
)

// Options controls the builder.
type Options struct {
	// Rows is the row count of the new table; 0 takes the longest source.
	Rows int
	// Fill leaves every row padded instead of copying the sources.
	Fill bool
}

// New builds a table of the given kind from input: a *column.ColumnSet, a
// *Table whose columns and data are copied, or a []*column.Column. The
// result owns its storage; no column aliases the caller's arrays.
func New(kind Kind, input any, opts Options) (*Table, error) {
	var src *column.ColumnSet
	switch in := input.(type) {
	case *column.ColumnSet:
		src = in
	case *Table:
		src = in.cols
	case []*column.Column:
		cs, err := column.New(kind, in...)
		if err != nil {
			return nil, err
		}
		src = cs
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
	cs, err := src.As(kind)
	if err != nil {
		return nil, err
	}

	rows := opts.Rows
	if rows == 0 {
		for _, c := range cs.Columns() {
			rows = max(rows, c.Rows())
		}
	}
	return CodecFor(kind).Build(cs, rows, opts.Fill)
}

// build allocates storage for cs and populates it from each column's
// source array. cs must not be shared with another table.
func build(kind Kind, cs *column.ColumnSet, rows int, fill bool) (*Table, error) {
	t := &Table{kind: kind, cols: cs, nrows: rows}
	t.data = make([]byte, rows*cs.RowLen())
	if kind == ASCII {
		for i := range t.data {
			t.data[i] = ' '
		}
	}

	sources := make([]any, cs.Len())
	for i, c := range cs.Columns() {
		sources[i] = c.Data()
	}
	t.bind(bx.Native)

	for i, f := range t.fields {
		src := sources[i]
		n := min(column.Len(src), rows)
		if fill {
			n = 0
		}
		for r := 0; r < n; r++ {
			if err := f.SetValue(r, rowOf(src, r)); err != nil {
				return nil, fmt.Errorf("row %d: %w", r, err)
			}
		}
		for r := n; r < rows; r++ {
			f.pad(r)
		}
		f.col.Array = nil
	}
	// filled tables keep the declared maximum until their rows are set
	if !fill {
		t.RecordMax()
	}

	slog.Debug("table: built", "kind", kind, "rows", rows, "fields", len(t.fields), "fill", fill)
	return t, nil
}

type rowValuer interface {
	Value(row int) any
}

// rowOf reads row r of a column source: a bound field or any slice.
func rowOf(src any, r int) any {
	if v, ok := src.(rowValuer); ok {
		return v.Value(r)
	}
	return reflect.ValueOf(src).Index(r).Interface()
}
