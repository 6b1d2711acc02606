package table

import (
	"io"

	"github.com/tuannm99/novafits/internal/checksum"
	"github.com/tuannm99/novafits/internal/column"
)

// Codec is the per-kind strategy behind materialize, write, build and
// checksum.
type Codec interface {
	Kind() Kind
	Materialize(cs *column.ColumnSet, raw []byte, l Layout) (*Table, error)
	Write(t *Table, w io.Writer) (int64, error)
	Build(cs *column.ColumnSet, rows int, fill bool) (*Table, error)
	Datasum(t *Table) checksum.Result
}

type binaryCodec struct{}

func (binaryCodec) Kind() Kind { return Binary }

func (binaryCodec) Materialize(cs *column.ColumnSet, raw []byte, l Layout) (*Table, error) {
	return materialize(cs, raw, l)
}

func (binaryCodec) Write(t *Table, w io.Writer) (int64, error) { return writeBinary(t, w) }

func (binaryCodec) Build(cs *column.ColumnSet, rows int, fill bool) (*Table, error) {
	return build(Binary, cs, rows, fill)
}

func (binaryCodec) Datasum(t *Table) checksum.Result { return datasumBinary(t) }

type asciiCodec struct{}

func (asciiCodec) Kind() Kind { return ASCII }

func (asciiCodec) Materialize(cs *column.ColumnSet, raw []byte, l Layout) (*Table, error) {
	return materialize(cs, raw, l)
}

func (asciiCodec) Write(t *Table, w io.Writer) (int64, error) { return writeASCII(t, w) }

func (asciiCodec) Build(cs *column.ColumnSet, rows int, fill bool) (*Table, error) {
	return build(ASCII, cs, rows, fill)
}

func (asciiCodec) Datasum(t *Table) checksum.Result { return datasumASCII(t) }

// CodecFor returns the strategy for kind; anything but ASCII is binary.
func CodecFor(kind Kind) Codec {
	if kind == ASCII {
		return asciiCodec{}
	}
	return binaryCodec{}
}
