package table

import (
	"io"
	"log/slog"

	"github.com/tuannm99/novafits/internal/heap"
)

// WriteTo writes the data unit: rows in big-endian order, the gap, then
// the heap. Padding to the block boundary is left to the container.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	return CodecFor(t.kind).Write(t, w)
}

// layoutHeap lays out every variable-length array, column by column and
// row by row.
func (t *Table) layoutHeap() *heap.Layout {
	l := heap.NewLayout()
	for _, f := range t.fields {
		if !f.isVarLen() {
			continue
		}
		w := f.format.Code.Width()
		for r := 0; r < t.nrows; r++ {
			l.Append(f.index, f.vla[r].Len(), w)
		}
	}
	return l
}

// putDescriptors stores the layout's descriptors into the row cells of
// dst, which must have the table's fixed-region geometry.
func (t *Table) putDescriptors(dst []byte, l *heap.Layout) {
	rowLen := t.RowLen()
	for _, i := range l.Fields() {
		f := t.fields[i]
		for r, d := range l.Descriptors(i) {
			off := r*rowLen + f.offset
			heap.Put(dst[off:off+f.width], f.format.Long, d)
		}
	}
}

type swapper interface{ flip() }

// toDiskOrder swaps every segment not in big-endian order and returns the
// function restoring them, in reverse order.
func (t *Table) toDiskOrder() (restore func()) {
	var done []swapper
	for _, f := range t.fields {
		if f.needsSwap() {
			f.flip()
			done = append(done, f)
		}
		for _, a := range f.vla {
			if a.needsSwap() {
				a.flip()
				done = append(done, a)
			}
		}
	}
	return func() {
		for i := len(done) - 1; i >= 0; i-- {
			done[i].flip()
		}
	}
}

func writeBinary(t *Table, w io.Writer) (n int64, err error) {
	l := t.layoutHeap()
	t.putDescriptors(t.data, l)

	restore := t.toDiskOrder()
	defer restore()

	cw := &countWriter{w: w}
	defer func() { n = cw.n }()

	if _, err = cw.Write(t.data); err != nil {
		return
	}
	if t.gap > 0 {
		if _, err = cw.Write(make([]byte, t.gap)); err != nil {
			return
		}
	}
	var size int64
	for _, i := range l.Fields() {
		for _, a := range t.fields[i].vla {
			if a.Len() == 0 {
				continue
			}
			if _, err = cw.Write(a.data); err != nil {
				return
			}
			size += int64(len(a.data))
		}
	}
	t.heapSize = int(size)

	slog.Debug("table: wrote binary data",
		"rows", t.nrows, "bytes", cw.n, "heap", t.heapSize, "gap", t.gap)
	return
}

func writeASCII(t *Table, w io.Writer) (int64, error) {
	n, err := w.Write(t.data)
	slog.Debug("table: wrote ascii data", "rows", t.nrows, "bytes", n)
	return int64(n), err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
