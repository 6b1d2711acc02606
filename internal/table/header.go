package table

import (
	"github.com/tuannm99/novafits/internal/header"
)

// Update synchronizes the structural keywords of h with the table: row
// width, row count, field count and every per-column definition, which
// are cleared and regenerated.
func (t *Table) Update(h *header.Header) {
	h.Set("XTENSION", t.kind.Extension())
	h.Set("BITPIX", 8)
	h.Set("NAXIS", 2)
	h.Set("NAXIS1", t.RowLen())
	h.Set("NAXIS2", t.nrows)
	if !h.Has("PCOUNT") {
		h.Set("PCOUNT", 0)
	}
	h.Set("GCOUNT", 1)
	h.Set("TFIELDS", t.cols.Len())
	t.cols.ToHeader(h)
}

// SyncHeader runs Update and then records the heap: variable-length
// formats carry their longest row, PCOUNT covers gap plus heap and THEAP
// is present only when a gap separates the rows from the heap.
func (t *Table) SyncHeader(h *header.Header) {
	l := t.layoutHeap()
	t.recordMax(l)
	t.Update(h)

	if t.kind != Binary {
		h.Set("PCOUNT", 0)
		h.Delete("THEAP")
		return
	}
	h.Set("PCOUNT", int(l.Size())+t.gap)
	if t.gap > 0 {
		h.Set("THEAP", t.HeapOffset())
	} else {
		h.Delete("THEAP")
	}
}
