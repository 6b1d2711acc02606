package table

import (
	"fmt"
	"log/slog"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/heap"
	"github.com/tuannm99/novafits/internal/header"
)

// Layout is the stored geometry of a data unit, as declared by its header.
type Layout struct {
	RowLen     int // NAXIS1; 0 takes the column set's width
	NRows      int // NAXIS2
	HeapOffset int // THEAP; 0 means right after the rows
	HeapSize   int // PCOUNT minus the gap
}

// LayoutOf reads the data geometry keywords of h.
func LayoutOf(h *header.Header) Layout {
	l := Layout{
		RowLen: int(h.IntOr("NAXIS1", 0)),
		NRows:  int(h.IntOr("NAXIS2", 0)),
	}
	fixed := l.RowLen * l.NRows
	pcount := int(h.IntOr("PCOUNT", 0))
	l.HeapOffset = int(h.IntOr("THEAP", int64(fixed)))
	l.HeapSize = max(pcount-(l.HeapOffset-fixed), 0)
	return l
}

// Size is the unpadded byte length of the data unit.
func (l Layout) Size() int {
	if l.HeapSize == 0 {
		return l.RowLen * l.NRows
	}
	return l.HeapOffset + l.HeapSize
}

// Open materializes the table described by h over raw.
func Open(h *header.Header, raw []byte) (*Table, error) {
	cs, err := column.FromHeader(h)
	if err != nil {
		return nil, err
	}
	return Materialize(cs, raw, LayoutOf(h))
}

// Materialize builds a table view over raw without copying the fixed
// region. Variable-length arrays are slices of the heap.
func Materialize(cs *column.ColumnSet, raw []byte, l Layout) (*Table, error) {
	return CodecFor(cs.Kind()).Materialize(cs, raw, l)
}

func materialize(cs *column.ColumnSet, raw []byte, l Layout) (*Table, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	if l.RowLen != 0 {
		if err := cs.SetRowLen(l.RowLen); err != nil {
			return nil, err
		}
	}
	rowLen := cs.RowLen()
	fixed := rowLen * l.NRows
	if len(raw) < fixed {
		return nil, fmt.Errorf("table: data holds %d bytes, %d rows of %d need %d",
			len(raw), l.NRows, rowLen, fixed)
	}
	heapOffset := l.HeapOffset
	if heapOffset == 0 {
		heapOffset = fixed
	}
	if heapOffset < fixed {
		return nil, fmt.Errorf("table: heap offset %d inside the %d-byte fixed region", heapOffset, fixed)
	}

	t := &Table{
		kind:  cs.Kind(),
		cols:  cs,
		data:  raw[:fixed:fixed],
		nrows: l.NRows,
		gap:   heapOffset - fixed,
	}
	t.bind(bx.BigEndian)

	var heapBytes []byte
	if t.kind == Binary && t.HasHeap() && len(raw) > heapOffset {
		end := min(heapOffset+l.HeapSize, len(raw))
		heapBytes = raw[heapOffset:end:end]
		t.heapSize = len(heapBytes)
	}
	for _, f := range t.fields {
		if !f.isVarLen() {
			continue
		}
		if err := f.readArrays(heapBytes); err != nil {
			return nil, err
		}
	}

	slog.Debug("table: materialized",
		"kind", t.kind, "rows", t.nrows, "row_len", rowLen,
		"fields", len(t.fields), "heap", t.heapSize, "gap", t.gap)
	return t, nil
}

// readArrays resolves every row descriptor of a variable-length field
// against the heap.
func (f *Field) readArrays(heapBytes []byte) error {
	long := f.format.Long
	w := f.format.Code.Width()
	for r := 0; r < f.t.nrows; r++ {
		d := heap.Read(f.cell(r), long)
		if d.Len == 0 {
			f.vla[r] = nil
			continue
		}
		if err := d.Check(w, int64(len(heapBytes))); err != nil {
			return fmt.Errorf("%w: field %q row %d: %w", ErrBadDescriptor, f.Name(), r, err)
		}
		end := d.Offset + d.Len*int64(w)
		f.vla[r] = &Array{
			code:  f.format.Code,
			data:  heapBytes[d.Offset:end:end],
			order: bx.BigEndian,
		}
	}
	return nil
}

// RecordMax rewrites every variable-length format so its maximum matches
// the longest row array.
func (t *Table) RecordMax() { t.recordMax(t.layoutHeap()) }

func (t *Table) recordMax(l *heap.Layout) {
	for _, f := range t.fields {
		if !f.isVarLen() {
			continue
		}
		fm := f.format
		fm.Max = l.MaxLen(f.index)
		if fm == f.format {
			continue
		}
		if err := t.cols.SetFormat(f.index, fm); err == nil {
			f.format = fm
		}
	}
}
