package table

import (
	"bytes"

	"github.com/tuannm99/novafits/internal/alias/bx"
	"github.com/tuannm99/novafits/internal/checksum"
	"github.com/tuannm99/novafits/internal/storage"
)

// Datasum computes the data checksum over the bytes WriteTo would produce,
// padded to the block size. The table is not modified.
func (t *Table) Datasum() checksum.Result {
	return CodecFor(t.kind).Datasum(t)
}

// diskImage renders the on-disk data unit of a binary table into a
// scratch buffer.
func (t *Table) diskImage() []byte {
	var buf bytes.Buffer

	fixed := append([]byte(nil), t.data...)
	rowLen := t.RowLen()
	for _, f := range t.fields {
		if !f.needsSwap() {
			continue
		}
		w := f.format.SwapWidth()
		for r := 0; r < t.nrows; r++ {
			off := r*rowLen + f.offset
			bx.Swap(fixed[off:off+f.width], w)
		}
	}
	l := t.layoutHeap()
	t.putDescriptors(fixed, l)
	buf.Write(fixed)
	buf.Write(make([]byte, t.gap))

	for _, i := range l.Fields() {
		for _, a := range t.fields[i].vla {
			if a.Len() > 0 {
				buf.Write(a.bigEndian())
			}
		}
	}
	buf.Write(bytes.Repeat([]byte{storage.BinaryPad}, storage.PadLength(buf.Len())))
	return buf.Bytes()
}

func datasumBinary(t *Table) checksum.Result {
	return checksum.NewResult(checksum.Sum(t.diskImage(), 0))
}

func datasumASCII(t *Table) checksum.Result {
	data := make([]byte, len(t.data), len(t.data)+storage.PadLength(len(t.data)))
	copy(data, t.data)
	data = append(data, bytes.Repeat([]byte{storage.ASCIIPad}, storage.PadLength(len(t.data)))...)
	return checksum.NewResult(checksum.Sum(data, 0))
}
